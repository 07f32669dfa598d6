package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckProductType(t *testing.T) {
	assert.NoError(t, CheckProductType("OL_1_EFR___"))
	assert.NoError(t, CheckProductType("SY_2_VGP___"))

	err := CheckProductType("OL_1_EFR")
	assert.Error(t, err)
	var verr ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestParsePeriod(t *testing.T) {
	start, end, err := ParsePeriod([]string{"2018-01-31", "2018-02-20"})
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2018, 1, 31, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2018, 2, 20, 0, 0, 0, 0, time.UTC), end)

	// reversed dates are swapped
	start, end, err = ParsePeriod([]string{"2018-02-20", "2018-01-31"})
	assert.NoError(t, err)
	assert.True(t, start.Before(end))

	// single date: open period ending now
	start, end, err = ParsePeriod([]string{"2018-01-31"})
	assert.NoError(t, err)
	assert.True(t, end.After(start))

	_, _, err = ParsePeriod(nil)
	assert.Error(t, err)
	_, _, err = ParsePeriod([]string{"not a date"})
	assert.Error(t, err)
	_, _, err = ParsePeriod([]string{"2018-01-31", "2018-02-20", "2018-03-01"})
	assert.Error(t, err)
}

func TestFormatUTC(t *testing.T) {
	d := time.Date(2018, 1, 31, 12, 30, 15, 250e6, time.UTC)
	assert.Equal(t, "2018-01-31T12:30:15.250Z", FormatUTC(d))
}

func TestParsePoint(t *testing.T) {
	pt, err := ParsePoint(56.46, 7.57)
	assert.NoError(t, err)
	assert.Equal(t, 7.57, pt.X())
	assert.Equal(t, 56.46, pt.Y())

	_, err = ParsePoint(91, 0)
	assert.Error(t, err)
	_, err = ParsePoint(0, -200)
	assert.Error(t, err)
}
