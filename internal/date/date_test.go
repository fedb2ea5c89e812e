package date

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAddMonthsClampsDay(t *testing.T) {
	tests := []struct {
		name  string
		start string
		n     int
		want  string
	}{
		{"plain month step", "2025-01-15", 1, "2025-02-15"},
		{"clamp to february", "2025-01-31", 1, "2025-02-28"},
		{"clamp to leap february", "2024-01-31", 1, "2024-02-29"},
		{"clamp to 30-day month", "2025-03-31", 1, "2025-04-30"},
		{"zero months is identity", "2025-01-31", 0, "2025-01-31"},
		{"across year boundary", "2025-11-15", 3, "2026-02-15"},
		{"twelve months", "2025-02-28", 12, "2026-02-28"},
		{"negative step", "2025-03-31", -1, "2025-02-28"},
		{"negative across year", "2025-01-15", -2, "2024-11-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParse(tt.start).AddMonths(tt.n)
			if got.String() != tt.want {
				t.Errorf("AddMonths(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestAddMonthsDoesNotRollOver(t *testing.T) {
	// A clamped result must stay in the target month, never spill into
	// the next one.
	got := MustParse("2025-01-30").AddMonths(1)
	if got.Month() != time.February || got.Day() != 28 {
		t.Errorf("AddMonths(1) = %v, want 2025-02-28", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"canonical", "2025-07-15", "2025-07-15", false},
		{"unpadded", "2025-7-1", "2025-07-01", false},
		{"garbage", "not-a-date", "", true},
		{"empty", "", "", true},
		{"bad day", "2025-02-30", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := MustParse("2025-07-15")
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2025-07-15"` {
		t.Errorf("Marshal() = %s, want %q", data, "2025-07-15")
	}
	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != d {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}

func TestZeroDateJSON(t *testing.T) {
	var d Date
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `""` {
		t.Errorf("Marshal(zero) = %s, want \"\"", data)
	}
	var back Date
	if err := json.Unmarshal([]byte(`""`), &back); err != nil {
		t.Fatalf("Unmarshal(\"\") error = %v", err)
	}
	if !back.IsZero() {
		t.Errorf("Unmarshal(\"\") = %v, want zero", back)
	}
}

func TestMonthKey(t *testing.T) {
	d := MustParse("2025-07-15")
	if got := d.MonthKey().String(); got != "2025-07" {
		t.Errorf("MonthKey() = %v, want 2025-07", got)
	}
}

func TestMonthAdd(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"forward", "2025-07", 1, "2025-08"},
		{"across year", "2025-11", 3, "2026-02"},
		{"backward", "2025-01", -2, "2024-11"},
		{"identity", "2025-07", 0, "2025-07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParseMonth(tt.in).Add(tt.n)
			if got.String() != tt.want {
				t.Errorf("Add(%d) = %v, want %v", tt.n, got, tt.want)
			}
		})
	}
}

func TestMonthBounds(t *testing.T) {
	mo := MustParseMonth("2025-02")
	if got := mo.First().String(); got != "2025-02-01" {
		t.Errorf("First() = %v, want 2025-02-01", got)
	}
	if got := mo.Last().String(); got != "2025-02-28" {
		t.Errorf("Last() = %v, want 2025-02-28", got)
	}
	leap := MustParseMonth("2024-02")
	if got := leap.Last().String(); got != "2024-02-29" {
		t.Errorf("Last() = %v, want 2024-02-29", got)
	}
}

func TestMonthContains(t *testing.T) {
	mo := MustParseMonth("2025-07")
	if !mo.Contains(MustParse("2025-07-01")) || !mo.Contains(MustParse("2025-07-31")) {
		t.Error("Contains() should include both ends of the month")
	}
	if mo.Contains(MustParse("2025-08-01")) {
		t.Error("Contains() should exclude the next month")
	}
}

func TestMonthBefore(t *testing.T) {
	a := MustParseMonth("2025-07")
	b := MustParseMonth("2025-08")
	c := MustParseMonth("2026-01")
	if !a.Before(b) || !b.Before(c) {
		t.Error("Before() should order months chronologically")
	}
	if b.Before(a) || a.Before(a) {
		t.Error("Before() should be strict")
	}
}
