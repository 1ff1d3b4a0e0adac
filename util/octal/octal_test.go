package octal

import (
	"strings"
	"testing"
)

func TestFormatWord(t *testing.T) {
	var b strings.Builder
	FormatWord(&b, 0o123456)
	if got, want := b.String(), "123456"; got != want {
		t.Errorf("FormatWord() = %q, want %q", got, want)
	}
}

func TestFormatWordZero(t *testing.T) {
	var b strings.Builder
	FormatWord(&b, 0)
	if got, want := b.String(), "000000"; got != want {
		t.Errorf("FormatWord() = %q, want %q", got, want)
	}
}

func TestParseWord(t *testing.T) {
	cases := []struct {
		in   string
		want uint16
		ok   bool
	}{
		{"123456", 0o123456, true},
		{"0", 0, true},
		{"177777", 0o177777, true},
		{"", 0, false},
		{"8", 0, false},
		{"1000000000", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseWord(c.in)
		if ok != c.ok {
			t.Errorf("ParseWord(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && got != c.want {
			t.Errorf("ParseWord(%q) = %o, want %o", c.in, got, c.want)
		}
	}
}
