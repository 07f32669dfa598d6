package downloader

import (
	"context"
	"fmt"
	"testing"

	"github.com/earthscan/s3loader/common"
	"github.com/earthscan/s3loader/service"
	"github.com/stretchr/testify/assert"
)

func orbitName(orbit int) string {
	return efrProduct[:73] + fmt.Sprintf("%03d", orbit) + efrProduct[76:]
}

func TestFilterFrequentOrbits(t *testing.T) {
	products := []common.Product{
		{UUID: "a", Name: orbitName(165)},
		{UUID: "b", Name: orbitName(38)},
		{UUID: "c", Name: orbitName(165)},
		{UUID: "d", Name: orbitName(207)},
		{UUID: "e", Name: orbitName(38)},
		{UUID: "f", Name: orbitName(165)},
	}
	kept, err := FilterFrequentOrbits(context.Background(), products, MinOrbitFrequency)
	assert.NoError(t, err)
	assert.Equal(t, []common.Product{products[0], products[1]}, kept)
}

func TestFilterFrequentOrbitsNone(t *testing.T) {
	products := []common.Product{
		{UUID: "a", Name: orbitName(1)},
		{UUID: "b", Name: orbitName(2)},
		{UUID: "c", Name: orbitName(3)},
	}
	_, err := FilterFrequentOrbits(context.Background(), products, MinOrbitFrequency)
	assert.Error(t, err)
	assert.True(t, service.Fatal(err))
	var noOrbits ErrNoFrequentOrbits
	assert.ErrorAs(t, err, &noOrbits)
	assert.Equal(t, MinOrbitFrequency, noOrbits.MinFrequency)
}

func TestFilterFrequentOrbitsMalformedName(t *testing.T) {
	products := []common.Product{
		{UUID: "a", Name: orbitName(165)},
		{UUID: "b", Name: "S3A_OL_1_EFR"},
	}
	_, err := FilterFrequentOrbits(context.Background(), products, MinOrbitFrequency)
	assert.Error(t, err)
	assert.True(t, service.Fatal(err))
}
