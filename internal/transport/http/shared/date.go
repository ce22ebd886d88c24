package shared

import "time"

// dateLayouts covers the payload shapes clients send for period bounds,
// loan start dates, and payment dates.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// ParseDate accepts RFC3339 or YYYY-MM-DD. An empty value parses to the
// zero time so callers can treat the field as optional.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	var err error
	for _, layout := range dateLayouts {
		var parsed time.Time
		if parsed, err = time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, err
}
