package youtube

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{
			name: "rfc3339",
			in:   "2024-03-06T21:40:57Z",
			want: time.Date(2024, 3, 6, 21, 40, 57, 0, time.UTC),
		},
		{
			name: "with offset",
			in:   "2024-03-06T21:40:57+02:00",
			want: time.Date(2024, 3, 6, 19, 40, 57, 0, time.UTC),
		},
		{
			name: "malformed returns zero time",
			in:   "yesterday",
			want: time.Time{},
		},
		{
			name: "empty returns zero time",
			in:   "",
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
