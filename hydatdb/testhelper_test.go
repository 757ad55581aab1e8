package hydatdb

import (
	"database/sql"
	"strings"
	"testing"

	"gaugelink.hydrology.org/internal/appconf"

	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE STATIONS (
	STATION_NUMBER TEXT PRIMARY KEY,
	STATION_NAME TEXT,
	PROV_TERR_STATE_LOC TEXT,
	REGIONAL_OFFICE_ID TEXT,
	HYD_STATUS TEXT,
	SED_STATUS TEXT,
	LATITUDE REAL,
	LONGITUDE REAL,
	DRAINAGE_AREA_GROSS REAL,
	DRAINAGE_AREA_EFFECT REAL
);
CREATE TABLE DLY_FLOWS (
	STATION_NUMBER TEXT,
	YEAR INTEGER,
	MONTH INTEGER,
	FULL_MONTH INTEGER,
	NO_DAYS INTEGER,
	MONTHLY_MEAN REAL,
	PRIMARY KEY (STATION_NUMBER, YEAR, MONTH)
);
CREATE TABLE VERSION (Version TEXT, Date TEXT);
`

const testFixtures = `
INSERT INTO STATIONS VALUES ('02HA003', 'NIAGARA RIVER AT QUEENSTON', 'ON', '5', 'A', NULL, 43.1594, -79.0475, 686000, NULL);
INSERT INTO STATIONS VALUES ('02HB004', 'EAST OAKVILLE CREEK NEAR OMAGH', 'ON', '5', 'D', NULL, 43.4869, -79.7608, 199, 199);
INSERT INTO STATIONS VALUES ('02HC003', 'HUMBER RIVER AT WESTON', 'ON', '5', 'A', NULL, 43.7011, -79.5194, NULL, NULL);
INSERT INTO STATIONS VALUES ('08MF005', 'FRASER RIVER AT HOPE', 'BC', '8', 'A', 'D', 49.3861, -121.4514, 217000, NULL);
INSERT INTO STATIONS VALUES ('02ZZ999', 'NO COORDINATES', 'ON', '5', 'A', NULL, NULL, NULL, NULL, NULL);
INSERT INTO DLY_FLOWS VALUES ('02HA003', 1990, 1, 1, 31, 5000);
INSERT INTO DLY_FLOWS VALUES ('02HA003', 1990, 2, 1, 28, 5100);
INSERT INTO DLY_FLOWS VALUES ('02HA003', 1999, 12, 1, 31, 5200);
INSERT INTO DLY_FLOWS VALUES ('02HC003', 2004, 2, 1, 29, 12.5);
INSERT INTO VERSION VALUES ('1.0', '2024-01-01');
`

func populate(t *testing.T, db *sql.DB) {
	t.Helper()
	for _, stmt := range strings.Split(testSchema+testFixtures, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}

// newTestClient returns an in-memory client loaded with the fixture rows.
func newTestClient(t *testing.T, driver string) *Client {
	t.Helper()
	client, err := NewClient(NewConfig(":memory:", appconf.Test, false).WithDriver(driver))
	if err != nil && strings.Contains(err.Error(), "cgo") {
		t.Skipf("driver %s unavailable: %v", driver, err)
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	populate(t, client.DB)
	return client
}
