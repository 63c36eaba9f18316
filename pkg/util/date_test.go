package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeDateOnly(t *testing.T) {
	got, ok := ParseTime("2024-01-02")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDateOfKeepsWallClockDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	in := time.Date(2024, 3, 5, 23, 30, 0, 0, ny)
	got := DateOf(in)
	if got != time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestAddDays(t *testing.T) {
	a := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	b := AddDays(a, 365)
	if FormatDate(b) != "2025-01-01" {
		t.Fatalf("unexpected date %s", FormatDate(b))
	}
}
