// Package tags suggests hashtags for a project from its title and preset XML.
package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const snippetLength = 100

var (
	// NoCredentialsTags is returned when no generator is configured.
	NoCredentialsTags = []string{"#local", "#project"}
	// FailureTags is returned when generation fails for any reason.
	FailureTags = []string{"#am", "#xml"}

	ErrRateLimited = errors.New("tag generation rate limit reached")
)

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Suggester struct {
	generator Generator
	limiter   *rate.Limiter
	logger    *logrus.Entry
}

// NewSuggester allows perMinute generations per minute. A nil generator
// means no credentials were configured.
func NewSuggester(generator Generator, perMinute int, logger *logrus.Logger) *Suggester {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &Suggester{
		generator: generator,
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		logger:    logger.WithField("component", "tags"),
	}
}

// Suggest never fails; it degrades to a fixed list instead.
func (s *Suggester) Suggest(ctx context.Context, title, xml string) []string {
	if s.generator == nil {
		return append([]string(nil), NoCredentialsTags...)
	}

	tags, err := s.generate(ctx, title, xml)
	if err != nil {
		s.logger.WithError(err).WithField("title", title).Warn("Tag generation failed, using fallback")
		return append([]string(nil), FailureTags...)
	}
	return tags
}

func (s *Suggester) generate(ctx context.Context, title, xml string) ([]string, error) {
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	text, err := s.generator.Generate(ctx, Prompt(title, xml))
	if err != nil {
		return nil, err
	}
	return ParseTags(text), nil
}

// Prompt embeds the title and the first characters of the preset XML.
func Prompt(title, xml string) string {
	snippet := []rune(xml)
	if len(snippet) > snippetLength {
		snippet = snippet[:snippetLength]
	}

	return fmt.Sprintf("Generate 3-5 short, relevant hashtags for a motion graphics project titled %q.\n"+
		"The XML snippet hints at: %s...\n"+
		"Return ONLY the tags separated by spaces (e.g. #shake #glow #3d).", title, string(snippet))
}

// ParseTags keeps the whitespace-separated tokens that start with '#'.
func ParseTags(text string) []string {
	tags := []string{}
	for _, token := range strings.Fields(text) {
		if strings.HasPrefix(token, "#") {
			tags = append(tags, token)
		}
	}
	return tags
}
