package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-spatial/geom"
)

// ProductTypes lists the Sentinel-3 product types accepted by the archive
var ProductTypes = []string{
	"SR_1_SRA___", "SR_1_SRA_A_", "SR_1_SRA_BS", "SR_2_LAN___",
	"OL_1_EFR___", "OL_1_ERR___", "OL_2_LFR___", "OL_2_LRR___",
	"SL_1_RBT___", "SL_2_LST___",
	"SY_2_SYN___", "SY_2_V10___", "SY_2_VG1___", "SY_2_VGP___",
}

// ValidationError is returned when a user-provided argument is rejected
// before any network activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CheckProductType verifies that productType is one of the acceptable Sentinel-3 types
func CheckProductType(productType string) error {
	for _, pt := range ProductTypes {
		if pt == productType {
			return nil
		}
	}
	return ValidationError{"product type", fmt.Sprintf("%s is not one of %s", productType, strings.Join(ProductTypes, ", "))}
}

// ParsePeriod parses one or two dates into a [start, end] search period.
// With a single date, the period extends to now. Reversed dates are swapped.
// Returned times are UTC.
func ParsePeriod(period []string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	switch len(period) {
	case 1:
		if start, err = dateparse.ParseAny(period[0]); err != nil {
			return start, end, ValidationError{"period", err.Error()}
		}
		end = time.Now()
	case 2:
		if start, err = dateparse.ParseAny(period[0]); err != nil {
			return start, end, ValidationError{"period", err.Error()}
		}
		if end, err = dateparse.ParseAny(period[1]); err != nil {
			return start, end, ValidationError{"period", err.Error()}
		}
		if start.After(end) {
			start, end = end, start
		}
	default:
		return start, end, ValidationError{"period", fmt.Sprintf("expected 1 or 2 dates, got %d", len(period))}
	}
	return start.UTC(), end.UTC(), nil
}

// FormatUTC formats the time as the archive expects it (YYYY-mm-ddTHH:MM:SS.mmmZ)
func FormatUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// ParsePoint validates a latitude/longitude pair and returns it as a point (x=lon, y=lat)
func ParsePoint(lat, lon float64) (geom.Point, error) {
	if lat <= -90 || lat >= 90 {
		return geom.Point{}, ValidationError{"point", fmt.Sprintf("strange latitude %v, expected it in range (-90, 90)", lat)}
	}
	if lon <= -180 || lon >= 180 {
		return geom.Point{}, ValidationError{"point", fmt.Sprintf("strange longitude %v, expected it in range (-180, 180)", lon)}
	}
	return geom.Point{lon, lat}, nil
}
