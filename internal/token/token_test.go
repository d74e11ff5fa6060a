package token

import (
	"regexp"
	"strings"
	"testing"
)

var (
	idRe     = regexp.MustCompile(`^p_[0-9a-f]{12}$`)
	secretRe = regexp.MustCompile(`^[0-9a-f]{36}$`)
)

func TestNewID_Format(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id, err := NewID(PollPrefix)
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if !idRe.MatchString(id) {
			t.Fatalf("bad id %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
	if id, _ := NewID(SlotPrefix); !strings.HasPrefix(id, "s_") {
		t.Fatalf("slot id prefix: %q", id)
	}
}

func TestNewSecret_Format(t *testing.T) {
	a, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	b, _ := NewSecret()
	if !secretRe.MatchString(a) || !secretRe.MatchString(b) || a == b {
		t.Fatalf("unexpected secrets %q %q", a, b)
	}
	if !ValidVoterKey(a) {
		t.Fatalf("generated secret must be a valid voter key")
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		presented, stored string
		want              bool
	}{
		{"abc", "abc", true},
		{"abd", "abc", false},
		{"ab", "abc", false},
		{"", "", false},
		{"", "abc", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		if got := Equal(tc.presented, tc.stored); got != tc.want {
			t.Fatalf("Equal(%q,%q) = %v", tc.presented, tc.stored, got)
		}
	}
}

func TestValidVoterKey(t *testing.T) {
	for _, k := range []string{"a", "abc-DEF_123", strings.Repeat("x", 64)} {
		if !ValidVoterKey(k) {
			t.Fatalf("ValidVoterKey(%q) = false", k)
		}
	}
	for _, k := range []string{"", " ", "a b", "a;b", strings.Repeat("x", 65), "ключ"} {
		if ValidVoterKey(k) {
			t.Fatalf("ValidVoterKey(%q) = true", k)
		}
	}
}
