package utils

import "testing"

func TestFormatFromFilename(t *testing.T) {
	cases := []struct {
		name     string
		expected string
	}{
		{"bracket.step", "STEP"},
		{"bracket.STP", "STEP"},
		{"flange.iges", "IGES"},
		{"flange.IGS", "IGES"},
		{"part.stl", "STL"},
		{"drawing.dxf", "DXF"},
		{"legacy.dwg", "DWG"},
		{"archive.tar.stl", "STL"},
		{"readme.txt", ""},
		{"noextension", ""},
		{"", ""},
	}
	for _, test := range cases {
		if result := FormatFromFilename(test.name); result != test.expected {
			t.Errorf("FormatFromFilename(%q) = %q, expected %q", test.name, result, test.expected)
		}
	}
}

func TestRandBase62(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		short := Rand8BytesToBase62()
		long := Rand16BytesToBase62()
		if short == "" || long == "" {
			t.Fatal("empty random identifier")
		}
		if len(long) <= len(short) {
			t.Errorf("expected the 16-byte identifier to be longer: %q vs %q", long, short)
		}
		if seen[short] || seen[long] {
			t.Fatal("random identifier repeated")
		}
		seen[short] = true
		seen[long] = true
	}
}

func TestUnixToISO(t *testing.T) {
	if result := UnixToISO(0); result != "1970-01-01T00:00:00Z" {
		t.Errorf("UnixToISO(0) = %q", result)
	}
	if result := UnixToISO(1700000000); result != "2023-11-14T22:13:20Z" {
		t.Errorf("UnixToISO(1700000000) = %q", result)
	}
}
