package common

import (
	"fmt"
	"strconv"
	"time"
)

// Product identifies a Sentinel-3 product in the primary archive.
// UUID is the archive identifier, Name the product file name, e.g.
// S3A_OL_1_EFR____20180901T103822_20180901T104122_20180902T154621_0179_035_165_2340_LN1_O_NT_002
type Product struct {
	UUID string
	Name string
}

// ExtensionSEN3 is the directory extension of an unpacked Sentinel-3 product
const ExtensionSEN3 = "SEN3"

// Fixed fields of a Sentinel-3 product name
const (
	sensingStartLayout = "20060102T150405"
	minNameLen         = 76 // up to and including the relative orbit field
)

// Info decomposes a Sentinel-3 product name into its fixed fields
func Info(productName string) (map[string]string, error) {
	if len(productName) < minNameLen {
		return nil, fmt.Errorf("invalid Sentinel3 file name: " + productName)
	}
	return map[string]string{
		"SCENE":           productName,
		"MISSION_ID":      productName[0:3],
		"MISSION_VERSION": productName[2:3],
		"PRODUCT_TYPE":    productName[4:15],
		"DATE":            productName[16:24],
		"YEAR":            productName[16:20],
		"MONTH":           productName[20:22],
		"DAY":             productName[22:24],
		"TIME":            productName[25:31],
		"HOUR":            productName[25:27],
		"MINUTE":          productName[27:29],
		"SECOND":          productName[29:31],
		"DURATION":        productName[64:68],
		"CYCLE":           productName[69:72],
		"RELATIVE_ORBIT":  productName[73:76],
	}, nil
}

// ProductType returns the product type token of the name, e.g. OL_1_EFR___
func ProductType(productName string) (string, error) {
	info, err := Info(productName)
	if err != nil {
		return "", err
	}
	return info["PRODUCT_TYPE"], nil
}

// SensingStart returns the sensing start time encoded in the product name
func SensingStart(productName string) (time.Time, error) {
	if len(productName) < minNameLen {
		return time.Time{}, fmt.Errorf("invalid Sentinel3 file name: " + productName)
	}
	t, err := time.Parse(sensingStartLayout, productName[16:31])
	if err != nil {
		return time.Time{}, fmt.Errorf("SensingStart[%s]: %w", productName, err)
	}
	return t, nil
}

// RelativeOrbit returns the relative orbit number encoded in the product name
func RelativeOrbit(productName string) (int, error) {
	info, err := Info(productName)
	if err != nil {
		return 0, err
	}
	orbit, err := strconv.Atoi(info["RELATIVE_ORBIT"])
	if err != nil {
		return 0, fmt.Errorf("RelativeOrbit[%s]: %w", productName, err)
	}
	return orbit, nil
}
