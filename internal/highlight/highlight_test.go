package highlight

import (
	"strings"
	"testing"

	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

func opts(size int) Options {
	return Options{
		AnalyzerName: "english",
		FragmentSize: size,
		LeftTag:      "<em>",
		RightTag:     "</em>",
	}
}

func TestBestFragmentWrapsMatch(t *testing.T) {
	got, err := BestFragment("Once upon a midnight dreary", "midnight", opts(64), nil)
	if err != nil {
		t.Fatalf("BestFragment: %v", err)
	}
	if !strings.Contains(got, "<em>midnight</em>") {
		t.Errorf("fragment %q missing tagged match", got)
	}
	if strings.Count(got, "<em>") != 1 {
		t.Errorf("fragment %q has extra tag pairs", got)
	}
}

func TestBestFragmentNoMatchReturnsEmpty(t *testing.T) {
	got, err := BestFragment("Once upon a midnight dreary", "zebra", opts(64), nil)
	if err != nil {
		t.Fatalf("BestFragment: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty fragment, got %q", got)
	}
}

func TestBestFragmentSizeBounds(t *testing.T) {
	if _, err := BestFragment("text", "text", opts(0), nil); !ftserr.Is(err, ftserr.FragmentSizeOutOfRange) {
		t.Errorf("size 0: got %v, want FragmentSizeOutOfRange", err)
	}
	if _, err := BestFragment("text", "text", opts(MaxFragmentOctets+1), nil); !ftserr.Is(err, ftserr.FragmentSizeOutOfRange) {
		t.Errorf("oversized: got %v, want FragmentSizeOutOfRange", err)
	}
	if _, err := BestFragment("text", "text", opts(1), nil); err != nil {
		t.Errorf("size 1 should be legal: %v", err)
	}
	if _, err := BestFragment("text", "text", opts(MaxFragmentOctets), nil); err != nil {
		t.Errorf("size %d should be legal: %v", MaxFragmentOctets, err)
	}
}

func TestBestFragmentsReturnsUpToMax(t *testing.T) {
	text := strings.Repeat("the raven flew away. ", 40)
	frags, err := BestFragments(text, "raven", opts(32), 3, nil)
	if err != nil {
		t.Fatalf("BestFragments: %v", err)
	}
	if len(frags) == 0 || len(frags) > 3 {
		t.Fatalf("got %d fragments, want 1..3", len(frags))
	}
	for _, f := range frags {
		if !strings.Contains(f, "<em>raven</em>") {
			t.Errorf("fragment %q missing tagged match", f)
		}
	}
}

func TestBestFragmentEscapedQuery(t *testing.T) {
	got, err := BestFragment("call a+b now", "a\\+b", Options{
		AnalyzerName: "whitespace",
		FragmentSize: 64,
		LeftTag:      "<b>",
		RightTag:     "</b>",
	}, nil)
	if err != nil {
		t.Fatalf("BestFragment: %v", err)
	}
	if got == "" {
		t.Error("escaped query should still match its literal text")
	}
}
