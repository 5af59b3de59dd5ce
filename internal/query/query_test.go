package query

import (
	"strings"
	"testing"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

func TestEscapeQuery(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`a+b (c:d)`, `a\+b \(c\:d\)`},
		{`plain words`, `plain words`},
		{`wild*card?`, `wild\*card\?`},
		{`brackets[]{}`, `brackets\[\]\{\}`},
		{`and&&or||`, `and\&\&or\|\|`},
		{``, ``},
	}
	for _, tc := range cases {
		if got := EscapeQuery(tc.in); got != tc.want {
			t.Errorf("EscapeQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEscapeQueryIdempotent(t *testing.T) {
	for _, in := range []string{`a+b (c:d)`, `x^2`, `already \+ escaped`, `plain`} {
		once := EscapeQuery(in)
		twice := EscapeQuery(once)
		if once != twice {
			t.Errorf("EscapeQuery not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestAnalyzeEnglish(t *testing.T) {
	terms, err := Analyze("Once upon a midnight dreary", "english", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	joined := strings.Join(terms, " ")
	if !strings.Contains(joined, "midnight") {
		t.Errorf("terms = %v, want midnight present", terms)
	}
	for _, term := range terms {
		if term == "a" {
			t.Errorf("english analyzer leaked stop word: %v", terms)
		}
	}
}

func TestAnalyzeUnknownAnalyzer(t *testing.T) {
	if _, err := Analyze("text", "martian", nil); !ftserr.Is(err, ftserr.NoSuchAnalyzer) {
		t.Fatalf("got %v, want NoSuchAnalyzer", err)
	}
}

func TestAnalyzeRejectsOverlongTerm(t *testing.T) {
	// The keyword analyzer emits the whole input as one term.
	long := strings.Repeat("x", MaxTermOctets+1)
	if _, err := Analyze(long, "keyword", nil); !ftserr.Is(err, ftserr.TermTooLong) {
		t.Fatalf("got %v, want TermTooLong", err)
	}

	ok := strings.Repeat("x", MaxTermOctets)
	if _, err := Analyze(ok, "keyword", nil); err != nil {
		t.Fatalf("term at the bound should pass: %v", err)
	}
}
