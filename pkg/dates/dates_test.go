package dates

import (
	"testing"
	"time"
)

func TestPreviousBusinessDay(t *testing.T) {
	tests := []struct {
		name string
		now  string
		want string
	}{
		{"monday skips to friday", "2025-01-13", "20250110"},
		{"sunday skips to friday", "2025-01-12", "20250110"},
		{"saturday returns friday", "2025-01-11", "20250110"},
		{"midweek returns yesterday", "2025-01-09", "20250108"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, err := time.Parse("2006-01-02", tt.now)
			if err != nil {
				t.Fatalf("bad test date: %v", err)
			}
			got := PreviousBusinessDay(now).Format(LayoutYYYYMMDD)
			if got != tt.want {
				t.Errorf("PreviousBusinessDay(%s) = %s, want %s", tt.now, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	now, _ := time.Parse("2006-01-02", "2025-01-13") // Monday

	tests := []struct {
		name      string
		mode      string
		want      string
		expectErr bool
	}{
		{"default mode is business day", "", "20250110", false},
		{"business day", ModePreviousBusinessDay, "20250110", false},
		{"plain previous day", ModePreviousDay, "20250112", false},
		{"unknown mode", "last-week", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.mode, now)
			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error for mode %q", tt.mode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.mode, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	if err := Validate("20250108"); err != nil {
		t.Errorf("unexpected error for valid date: %v", err)
	}
	if err := Validate("2025-01-08"); err == nil {
		t.Errorf("expected error for dashed date")
	}
	if err := Validate("20251340"); err == nil {
		t.Errorf("expected error for impossible date")
	}
}
