package tags

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSuggestWithoutCredentials(t *testing.T) {
	got := NewSuggester(nil, 10, quietLogger()).Suggest(context.Background(), "Glow", "<xml/>")
	if !reflect.DeepEqual(got, []string{"#local", "#project"}) {
		t.Fatalf("unexpected tags: %v", got)
	}
}

func TestSuggestFallsBackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota")}
	got := NewSuggester(gen, 10, quietLogger()).Suggest(context.Background(), "Glow", "<xml/>")
	if !reflect.DeepEqual(got, []string{"#am", "#xml"}) {
		t.Fatalf("unexpected tags: %v", got)
	}
}

func TestSuggestKeepsHashTokens(t *testing.T) {
	gen := &fakeGenerator{text: "Sure! #shake #glow\n#3d plain"}
	got := NewSuggester(gen, 10, quietLogger()).Suggest(context.Background(), "Glow", strings.Repeat("x", 300))

	if !reflect.DeepEqual(got, []string{"#shake", "#glow", "#3d"}) {
		t.Fatalf("unexpected tags: %v", got)
	}
	if strings.Contains(gen.prompts[0], strings.Repeat("x", 101)) {
		t.Fatalf("prompt should carry at most 100 characters of xml")
	}
	if !strings.Contains(gen.prompts[0], `"Glow"`) {
		t.Fatalf("prompt should name the title: %s", gen.prompts[0])
	}
}

func TestSuggestRateLimited(t *testing.T) {
	gen := &fakeGenerator{text: "#ok"}
	s := NewSuggester(gen, 1, quietLogger())

	if got := s.Suggest(context.Background(), "a", ""); !reflect.DeepEqual(got, []string{"#ok"}) {
		t.Fatalf("first call: %v", got)
	}
	if got := s.Suggest(context.Background(), "a", ""); !reflect.DeepEqual(got, FailureTags) {
		t.Fatalf("second call should be limited: %v", got)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("limited call should not reach the generator")
	}
}
