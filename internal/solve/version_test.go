package solve

import "testing"

func TestParseVersion(t *testing.T) {
	cases := []struct {
		in      string
		wantStr string
		wantErr bool
	}{
		{"1.2.3", "1.2.3", false},
		{"v1.2.3", "v1.2.3", false},
		{"v2.0.0", "v2.0.0", false},
		{"", "", true},
		{"abc", "", true},
		{"v", "", true},
	}

	for _, c := range cases {
		v, err := ParseVersion(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseVersion(%q): expected error, got nil", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseVersion(%q): unexpected error: %v", c.in, err)
			continue
		}
		if got := v.String(); got != c.wantStr {
			t.Errorf("ParseVersion(%q).String() = %q, want %q", c.in, got, c.wantStr)
		}
	}
}

func TestVersionCompareAndEqual(t *testing.T) {
	v1, _ := ParseVersion("1.2.3")
	v2, _ := ParseVersion("1.3.0")
	v1again, _ := ParseVersion("v1.2.3")

	if !v1.LessThan(v2) {
		t.Errorf("expected 1.2.3 < 1.3.0")
	}
	if v2.LessThan(v1) {
		t.Errorf("expected 1.3.0 not < 1.2.3")
	}
	if !v1.Equal(v1again) {
		t.Errorf("expected 1.2.3 to equal v1.2.3 (prefix ignored)")
	}
	if v1.Compare(v2) >= 0 {
		t.Errorf("expected Compare(1.2.3, 1.3.0) < 0")
	}
}

func TestCompatible(t *testing.T) {
	v1, _ := ParseVersion("1.2.3")
	v1Minor, _ := ParseVersion("1.5.0")
	v2, _ := ParseVersion("2.0.0")

	cases := []struct {
		name string
		vs   []Version
		want bool
	}{
		{"empty", nil, true},
		{"single", []Version{v1}, true},
		{"same-major-compatible", []Version{v1, v1Minor}, true},
		{"different-major-incompatible", []Version{v1, v2}, false},
		{"reversed-order-still-compatible", []Version{v1Minor, v1}, true},
	}

	for _, c := range cases {
		got, err := Compatible(c.vs...)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: Compatible() = %v, want %v", c.name, got, c.want)
		}
	}
}
