// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/paper-explorer/internal/apperr"
)

// summaryPromptTmpl is the single-pass summarization prompt: the whole
// document is placed in one request.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`Write a concise summary of the following:


"{{.Text}}"


CONCISE SUMMARY:`))

// Summarizer condenses an abstract into a short summary.
type Summarizer struct {
	Completer Completer
}

// NewSummarizer returns a Summarizer backed by c.
func NewSummarizer(c Completer) *Summarizer {
	return &Summarizer{Completer: c}
}

// Summarize returns a concise summary of text. Empty text is returned as is
// without calling the completion service.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	prompt, err := renderSummaryPrompt(text)
	if err != nil {
		return "", fmt.Errorf("rendering summary prompt: %w", err)
	}

	out, err := s.Completer.Complete(ctx, "", prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", apperr.Service("summarize", fmt.Errorf("completion service returned an empty summary"))
	}
	return out, nil
}

func renderSummaryPrompt(text string) (string, error) {
	var buf bytes.Buffer
	if err := summaryPromptTmpl.Execute(&buf, struct{ Text string }{Text: text}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
