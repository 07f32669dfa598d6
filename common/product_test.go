package common

import (
	"testing"
	"time"
)

const testProductName = "S3A_OL_1_EFR____20180901T103822_20180901T104122_20180902T154621_0179_035_165_2340_LN1_O_NT_002"

func checkKeyValue(t *testing.T, format map[string]string, key, value string) {
	if v, ok := format[key]; !ok {
		t.Errorf("key %s not found", key)
	} else if v != value {
		t.Errorf("expected %s for key %s, got %s", value, key, v)
	}
}

func TestInfo(t *testing.T) {
	if _, err := Info("S3A_OL_1_EFR____20180901T103822"); err == nil {
		t.Errorf("too short file name")
	}
	format, err := Info(testProductName)
	if err != nil {
		t.Fatal(err)
	}
	checkKeyValue(t, format, "MISSION_ID", "S3A")
	checkKeyValue(t, format, "PRODUCT_TYPE", "OL_1_EFR___")
	checkKeyValue(t, format, "DATE", "20180901")
	checkKeyValue(t, format, "YEAR", "2018")
	checkKeyValue(t, format, "MONTH", "09")
	checkKeyValue(t, format, "DAY", "01")
	checkKeyValue(t, format, "TIME", "103822")
	checkKeyValue(t, format, "HOUR", "10")
	checkKeyValue(t, format, "MINUTE", "38")
	checkKeyValue(t, format, "SECOND", "22")
	checkKeyValue(t, format, "DURATION", "0179")
	checkKeyValue(t, format, "CYCLE", "035")
	checkKeyValue(t, format, "RELATIVE_ORBIT", "165")
}

func TestSensingStart(t *testing.T) {
	start, err := SensingStart(testProductName)
	if err != nil {
		t.Fatal(err)
	}
	expected := time.Date(2018, 9, 1, 10, 38, 22, 0, time.UTC)
	if !start.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, start)
	}
	if start.YearDay() != 244 {
		t.Errorf("expected day of year 244, got %d", start.YearDay())
	}
	if _, err := SensingStart("S3A_OL_1_EFR"); err == nil {
		t.Errorf("too short file name")
	}
}

func TestRelativeOrbit(t *testing.T) {
	orbit, err := RelativeOrbit(testProductName)
	if err != nil {
		t.Fatal(err)
	}
	if orbit != 165 {
		t.Errorf("expected orbit 165, got %d", orbit)
	}
	if _, err := RelativeOrbit(testProductName[:70]); err == nil {
		t.Errorf("too short file name")
	}
}
