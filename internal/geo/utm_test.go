package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUTMProjector(t *testing.T) {
	tests := []struct {
		name        string
		zone        int
		expectError bool
	}{
		{name: "Ontario zone", zone: 17, expectError: false},
		{name: "First zone", zone: 1, expectError: false},
		{name: "Last zone", zone: 60, expectError: false},
		{name: "Zero zone", zone: 0, expectError: true},
		{name: "Zone too high", zone: 61, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUTMProjector(tt.zone, true)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUTMProjectorRoundTrip(t *testing.T) {
	proj, err := NewUTMProjector(17, true)
	require.NoError(t, err)

	// Don River at Todmorden Mills, Toronto
	pt, err := proj.Forward(-79.3590, 43.6840)
	require.NoError(t, err)
	assert.Greater(t, pt[0], 600000.0)
	assert.Less(t, pt[0], 650000.0)
	assert.Greater(t, pt[1], 4800000.0)

	back, err := proj.Inverse(pt)
	require.NoError(t, err)
	assert.InDelta(t, -79.3590, back[0], 1e-6)
	assert.InDelta(t, 43.6840, back[1], 1e-6)
}

func TestUTMProjectorOutsideZone(t *testing.T) {
	proj, err := NewUTMProjector(17, true)
	require.NoError(t, err)

	// Fraser River at Hope, British Columbia (zone 10)
	_, err = proj.Forward(-121.4419, 49.3858)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutsideZone))
}
