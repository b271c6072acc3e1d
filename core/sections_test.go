package core

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

const sectionsText = `interface eth0
 mtu 1500
!
interface eth1
 shutdown
!
router bgp 65000
`

func TestSectionsSingleShot(t *testing.T) {
	got, err := ExtractSections(sectionsText, `^interface`, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{sectionsText}, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestSectionsExclusive(t *testing.T) {
	got, err := ExtractSections(sectionsText, `^interface`, "", true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"interface eth0\n mtu 1500\n!\n",
		"interface eth1\n shutdown\n!\nrouter bgp 65000\n",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestSectionsInclusive(t *testing.T) {
	got, err := ExtractSections(sectionsText, `^interface`, `^!`, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"interface eth0\n mtu 1500\n!",
		"interface eth1\n shutdown\n!",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
}

func TestSectionsNoStart(t *testing.T) {
	got, err := ExtractSections(sectionsText, `^vlan`, "", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %q", got)
	}
}

func TestSectionsTerminate(t *testing.T) {
	// Zero-width and coinciding boundaries must still make
	// progress.
	for _, tt := range []struct {
		start, end string
	}{
		{`x*`, ""},
		{`^`, ""},
		{`x*`, `x*`},
		{`\b`, `$`},
	} {
		got, err := ExtractSections("abc\ndef", tt.start, tt.end, true)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) == 0 || 8 < len(got) {
			t.Fatalf("%q %q: got %q", tt.start, tt.end, got)
		}
		for _, s := range got {
			if s == "" || !strings.Contains("abc\ndef", s) {
				t.Fatalf("%q %q: got %q", tt.start, tt.end, got)
			}
		}
		if len("abc\ndef") < len(strings.Join(got, "")) {
			t.Fatalf("%q %q: got %q", tt.start, tt.end, got)
		}
	}
}

func TestSectionsMultibyte(t *testing.T) {
	got, err := ExtractSections("a€b", "a", "[^a]", true)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a€b"}, got); diff != "" {
		t.Fatal(diff)
	}

	// A zero-width start before a multibyte character.
	if got, err = ExtractSections("€x€y", "^|x", "", true); err != nil {
		t.Fatal(err)
	}
	for _, s := range got {
		if !utf8.ValidString(s) {
			t.Fatalf("split a character: %q", got)
		}
	}
}

func TestSectionsBadPattern(t *testing.T) {
	if _, err := ExtractSections("text", `(`, "", true); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := ExtractSections("text", `t`, `[`, true); err == nil {
		t.Fatal("expected an error")
	}
}
