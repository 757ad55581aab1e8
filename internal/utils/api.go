package utils

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// MaxIDLength bounds station identifiers accepted in request paths.
const MaxIDLength = 64

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ExtractIDFromParams returns the {id} path value without its response
// format extension.
func ExtractIDFromParams(r *http.Request) string {
	id := r.PathValue("id")
	for _, ext := range []string{".geojson", ".json"} {
		if strings.HasSuffix(id, ext) {
			return strings.TrimSuffix(id, ext)
		}
	}
	return id
}

// ValidateID rejects empty, oversized and non-identifier strings.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("id exceeds %d characters", MaxIDLength)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("id contains invalid characters")
	}
	return nil
}

// ParseFloatParam reads an optional float query parameter. A malformed value
// is recorded in fieldErrors under key and zero is returned.
func ParseFloatParam(params url.Values, key string, fieldErrors map[string][]string) (float64, map[string][]string) {
	if fieldErrors == nil {
		fieldErrors = make(map[string][]string)
	}
	raw := params.Get(key)
	if raw == "" {
		return 0, fieldErrors
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], fmt.Sprintf("Invalid field value for field %q.", key))
		return 0, fieldErrors
	}
	return v, fieldErrors
}
