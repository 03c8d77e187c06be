package profile

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		current bool
		zero    bool
		wantErr bool
	}{
		{in: "2021-03-15", want: "2021-03-15"},
		{in: "2021-03", want: "2021-03-01"},
		{in: "2021", want: "2021-01-01"},
		{in: "2021-03-15T10:00:00Z", want: "2021-03-15"},
		{in: "current", current: true, want: "current"},
		{in: "Current", current: true, want: "current"},
		{in: "", zero: true},
		{in: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.IsCurrent() != tt.current || d.IsZero() != tt.zero {
				t.Fatalf("unexpected flags: current=%v zero=%v", d.IsCurrent(), d.IsZero())
			}
			if d.String() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, d.String())
			}
		})
	}
}

func TestDateResolve(t *testing.T) {
	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	if got := Current().Resolve(now); !got.Equal(now) {
		t.Fatalf("expected current to resolve to now, got %v", got)
	}
	if got := NewDate(2020, time.July).Resolve(now); got.Year() != 2020 || got.Month() != time.July {
		t.Fatalf("unexpected resolve: %v", got)
	}
}

func TestEmploymentJSON(t *testing.T) {
	raw := `{"companyName":"Acme","designation":"Engineer","startDate":"2020-01-01","endDate":"current","skillsUsedInRole":["go"]}`

	var e Employment
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !e.EndDate.IsCurrent() || e.StartDate.String() != "2020-01-01" {
		t.Fatalf("unexpected dates: %v %v", e.StartDate, e.EndDate)
	}

	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if back["endDate"] != "current" || back["startDate"] != "2020-01-01" {
		t.Fatalf("unexpected encoded dates: %v", back)
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2020-01-01", "2020-06-30", 5},
		{"2020-01-31", "2021-01-01", 12},
		{"2020-06-01", "2020-01-01", -5},
		{"2019-11-15", "2020-02-01", 3},
	}
	for _, tt := range tests {
		a := MustDate(tt.a).Resolve(time.Time{})
		b := MustDate(tt.b).Resolve(time.Time{})
		if got := MonthsBetween(a, b); got != tt.want {
			t.Fatalf("MonthsBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
