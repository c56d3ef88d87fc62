package expdate

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		err  bool
	}{
		{"05-jan-2025", "2025-01-05", false},
		{"05-JAN-2025", "2025-01-05", false},
		{"5-Jan-2025", "2025-01-05", false},
		{"Sun Jan 05 00:00:00 GMT 2025", "2025-01-05", false},
		{"Sun Jan  5 23:59:59 UTC 2025", "2025-01-05", false},
		{"2025-01-05", "2025-01-05", false},
		{"2025-01-05T23:30:00Z", "2025-01-05", false},
		{"2025-01-05T23:30:00.123-05:00", "2025-01-05", false},
		{"2025.01.05 12:00:00", "2025-01-05", false},
		{"2028-09-13T00:00:00-0700", "2028-09-13", false},
		{"2028-09-13T23:15:00.5+0900", "2028-09-13", false},
		{"2025-01-05 23:59:59", "2025-01-05", false},
		{"2025/01/05", "2025-01-05", false},
		{"2020. 03. 02.", "2020-03-02", false},
		{"2020.03.02.", "", true},
		{"2025/1/5", "", true},
		{"2028-09-13T00:00:00-07", "", true},
		{"  05-jan-2025\n", "2025-01-05", false},
		{"not-a-date", "", true},
		{"", "", true},
		{"32-jan-2025", "", true},
		{"05-foo-2025", "", true},
		{"Sun Jan 05 00:00:00 2025", "", true},
	}
	for _, tc := range tests {
		got, err := Parse(tc.raw)
		if (err != nil) != tc.err {
			t.Errorf("Parse(%q) err = %v, wantErr %v", tc.raw, err, tc.err)
			continue
		}
		if err != nil {
			var dfe *DateFormatError
			if !errors.As(err, &dfe) {
				t.Errorf("Parse(%q) err = %T, want *DateFormatError", tc.raw, err)
			} else if dfe.Raw != tc.raw {
				t.Errorf("Parse(%q) DateFormatError.Raw = %q", tc.raw, dfe.Raw)
			}
			continue
		}
		if got.Format("2006-01-02") != tc.want {
			t.Errorf("Parse(%q) = %s, want %s", tc.raw, got.Format("2006-01-02"), tc.want)
		}
		if got.Location() != time.UTC || got.Hour() != 0 || got.Minute() != 0 {
			t.Errorf("Parse(%q) = %v, want UTC midnight", tc.raw, got)
		}
	}
}

func TestParseCompactAndVerboseAgree(t *testing.T) {
	compact, err := Parse("05-jan-2025")
	if err != nil {
		t.Fatal(err)
	}
	verbose, err := Parse("Sun Jan 05 00:00:00 GMT 2025")
	if err != nil {
		t.Fatal(err)
	}
	if !compact.Equal(verbose) {
		t.Errorf("compact %v != verbose %v", compact, verbose)
	}
	if want := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC); !compact.Equal(want) {
		t.Errorf("Parse = %v, want %v", compact, want)
	}
}
