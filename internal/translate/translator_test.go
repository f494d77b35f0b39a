package translate

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{
			name: "utc",
			in:   "2024-01-15T10:30:00Z",
			want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "fractional seconds",
			in:   "2024-01-15T10:30:00.123Z",
			want: time.Date(2024, 1, 15, 10, 30, 0, 123000000, time.UTC),
		},
		{
			name: "zone offset normalized to utc",
			in:   "2024-01-15T12:30:00+02:00",
			want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "garbage yields zero time",
			in:   "not a timestamp",
			want: time.Time{}.UTC(),
		},
		{
			name: "empty yields zero time",
			in:   "",
			want: time.Time{}.UTC(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTime(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("parseTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
