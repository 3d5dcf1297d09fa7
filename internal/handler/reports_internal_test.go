package handler

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseDateRange_Defaults(t *testing.T) {
	now := time.Date(2026, time.March, 15, 22, 30, 0, 0, time.UTC)
	r := httptest.NewRequest("GET", "/summary", nil)

	start, end, err := parseDateRange(r, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2026, time.February, 13, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start: got %v, want %v", start, want)
	}
	if want := time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end: got %v, want %v", end, want)
	}
}

func TestParseDateRange_SameDay(t *testing.T) {
	r := httptest.NewRequest("GET", "/summary?start_date=2026-01-10&end_date=2026-01-10", nil)

	start, end, err := parseDateRange(r, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := end.Sub(start); got != 24*time.Hour {
		t.Errorf("range: got %v, want 24h", got)
	}
}
