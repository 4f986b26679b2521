package http

import (
	"time"

	xutil "SalesPulse/pkg/util"
)

// OptionalDate parses a YYYY-MM-DD query value in loc. Empty means nil.
func OptionalDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := xutil.ParseDate(s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
