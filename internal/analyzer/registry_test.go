package analyzer

import (
	"testing"

	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
)

// stubSource feeds user-analyzer metadata without a catalog database.
type stubSource struct {
	analyzers map[string]catalog.UserAnalyzer
	words     map[string][]string
}

func (s *stubSource) GetUserAnalyzer(name string) (catalog.UserAnalyzer, error) {
	if a, ok := s.analyzers[name]; ok {
		return a, nil
	}
	return catalog.UserAnalyzer{}, ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q does not exist", name)
}

func (s *stubSource) StopWords(name string) ([]string, error) {
	return s.words[name], nil
}

func TestIsBuiltinCaseInsensitive(t *testing.T) {
	for _, name := range []string{"Standard", "ENGLISH", "cjk", "Whitespace", "czech", "GREEK"} {
		if !IsBuiltin(name) {
			t.Errorf("IsBuiltin(%q) = false, want true", name)
		}
	}
	if IsBuiltin("not_a_real_analyzer") {
		t.Error("IsBuiltin should reject unknown names")
	}
}

func TestSupportsStopWords(t *testing.T) {
	if !SupportsStopWords("english") {
		t.Error("english should support stop words")
	}
	if SupportsStopWords("keyword") {
		t.Error("keyword should not support stop words")
	}
	if SupportsStopWords("not_a_real_analyzer") {
		t.Error("unknown names should not support stop words")
	}
}

func TestNewUnknownName(t *testing.T) {
	if _, err := New("not_a_real_analyzer", &stubSource{}); !ftserr.Is(err, ftserr.NoSuchAnalyzer) {
		t.Fatalf("expected NoSuchAnalyzer, got %v", err)
	}
}

func TestNewBuiltinTokenizes(t *testing.T) {
	for _, name := range []string{"standard", "english", "whitespace", "stop", "czech", "greek", "keyword"} {
		a, err := New(name, nil)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		stream := a.Analyze([]byte("The Quick Brown Fox"))
		if len(stream) == 0 {
			t.Errorf("New(%q) produced an empty token stream", name)
		}
	}
}

func TestStopAnalyzerDropsStopWords(t *testing.T) {
	a, err := New("stop", nil)
	if err != nil {
		t.Fatalf("New(stop): %v", err)
	}
	for _, tok := range a.Analyze([]byte("the raven and the crow")) {
		if string(tok.Term) == "the" || string(tok.Term) == "and" {
			t.Errorf("stop analyzer leaked stop word %q", tok.Term)
		}
	}
}

func TestUserAnalyzerLayersStopWords(t *testing.T) {
	src := &stubSource{
		analyzers: map[string]catalog.UserAnalyzer{
			"no_ravens": {Name: "no_ravens", BaseAnalyzer: "standard"},
		},
		words: map[string][]string{"no_ravens": {"raven"}},
	}
	a, err := New("no_ravens", src)
	if err != nil {
		t.Fatalf("New(no_ravens): %v", err)
	}
	for _, tok := range a.Analyze([]byte("raven midnight")) {
		if string(tok.Term) == "raven" {
			t.Error("user analyzer did not drop its stop word")
		}
	}
}

func TestUserAnalyzerRejectsBaseWithoutStopWords(t *testing.T) {
	src := &stubSource{
		analyzers: map[string]catalog.UserAnalyzer{
			"bad_base": {Name: "bad_base", BaseAnalyzer: "keyword"},
		},
	}
	if _, err := New("bad_base", src); !ftserr.Is(err, ftserr.BaseAnalyzerLacksStopWords) {
		t.Fatalf("expected BaseAnalyzerLacksStopWords, got %v", err)
	}
}

func TestInstallBuiltinRegisteredPassThrough(t *testing.T) {
	im := mapping.NewIndexMapping()
	name, err := Install(im, "english", nil)
	if err != nil {
		t.Fatalf("Install(english): %v", err)
	}
	if name != "en" {
		t.Errorf("Install(english) = %q, want bleve's registered \"en\"", name)
	}
}

func TestInstallRecipeAndUserAnalyzer(t *testing.T) {
	im := mapping.NewIndexMapping()
	wsName, err := Install(im, "whitespace", nil)
	if err != nil {
		t.Fatalf("Install(whitespace): %v", err)
	}
	if im.AnalyzerNamed(wsName) == nil {
		t.Fatalf("mapping cannot resolve installed analyzer %q", wsName)
	}

	src := &stubSource{
		analyzers: map[string]catalog.UserAnalyzer{
			"no_articles": {Name: "no_articles", BaseAnalyzer: "english"},
		},
		words: map[string][]string{"no_articles": {"the", "a", "an"}},
	}
	userName, err := Install(im, "no_articles", src)
	if err != nil {
		t.Fatalf("Install(no_articles): %v", err)
	}
	a := im.AnalyzerNamed(userName)
	if a == nil {
		t.Fatalf("mapping cannot resolve installed user analyzer %q", userName)
	}
	for _, tok := range a.Analyze([]byte("the raven")) {
		if string(tok.Term) == "the" {
			t.Error("installed user analyzer did not drop its stop word")
		}
	}
}
