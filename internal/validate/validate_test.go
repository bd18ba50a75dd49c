package validate

import "testing"

func TestPrice(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2.50", true},
		{"0", true},
		{"10", true},
		{"-1", false},
		{"1.005", false},
		{"0.3333333333333333333", false},
		{"1000000", true},
		{"1000000.01", false},
		{"abc", false},
		{"", false},
	}
	for _, c := range cases {
		if _, ok := Price(c.in); ok != c.ok {
			t.Errorf("Price(%q) ok=%v, want %v", c.in, ok, c.ok)
		}
	}
}

func TestDateAndMonth(t *testing.T) {
	if _, ok := Date("2025-02-29"); ok {
		t.Error("2025-02-29 is not a date")
	}
	if _, ok := Date("2024-02-29"); !ok {
		t.Error("2024-02-29 is a date")
	}
	if _, ok := Month("2025-13"); ok {
		t.Error("month 13 accepted")
	}
	if m, ok := Month(" 2025-03 "); !ok || m != "2025-03" {
		t.Errorf("Month trim: %q %v", m, ok)
	}
}

func TestQRejectsMarkup(t *testing.T) {
	if _, ok := Q("<script>"); ok {
		t.Error("markup accepted")
	}
	if _, ok := Q("Vitamin C 1000mg"); !ok {
		t.Error("plain query rejected")
	}
}

func TestPhone(t *testing.T) {
	if _, ok := Phone("+1 (555) 010-2000"); !ok {
		t.Error("formatted phone rejected")
	}
	if _, ok := Phone("call me"); ok {
		t.Error("text accepted as phone")
	}
}
