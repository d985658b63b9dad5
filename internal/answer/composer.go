// Package answer turns retrieved evidence into a grounded response. With no
// evidence it declines without ever calling the generation model.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"knowbase/internal/apperr"
	"knowbase/internal/retrieval"
)

// Declination is returned verbatim whenever the bot has no evidence to answer
// from. Clients key off this exact text, so it must not change.
const Declination = "I apologize, but I don't have enough specific information in my knowledge base to answer that question accurately. I can only provide information that is directly contained in my training documents."

const unknownSource = "Unknown source"

const promptTemplate = `You are a helpful AI assistant that ONLY answers questions based on the provided context.
If the context doesn't contain enough specific information to answer the question accurately and completely,
respond with: "%s"

NEVER make up or infer information that isn't explicitly present in the context.
NEVER use your general knowledge to answer questions.
ONLY use information that is directly provided in the context.

Format your responses using HTML for better readability:
- Use <h2> for main headers
- Use <h3> for subsections
- Use <strong> for emphasis
- Use <ul> and <li> for unordered lists
- Use <ol> and <li> for ordered lists

Here is the context to use for answering the question:

%s`

// Source attributes one piece of evidence in the response payload.
type Source struct {
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
	Filename   string  `json:"filename"`
}

// Answer is the full response to one question.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

type Generator interface {
	Generate(ctx context.Context, systemPrompt, question string) (string, error)
}

// DocumentNamer resolves document ids to display names for attribution.
type DocumentNamer interface {
	GetNames(ctx context.Context, ids []string) (map[string]string, error)
}

type Config struct {
	GenTimeout time.Duration
}

type Composer struct {
	generator Generator
	namer     DocumentNamer
	cfg       Config
}

func NewComposer(g Generator, n DocumentNamer, cfg Config) *Composer {
	return &Composer{generator: g, namer: n, cfg: cfg}
}

// Compose builds the answer for a question given its retrieved evidence.
func (c *Composer) Compose(ctx context.Context, question string, evidence []retrieval.Result) (*Answer, error) {
	if len(evidence) == 0 {
		return &Answer{Answer: Declination, Sources: []Source{}}, nil
	}

	contents := make([]string, len(evidence))
	for i, ev := range evidence {
		contents[i] = ev.Content
	}
	prompt := fmt.Sprintf(promptTemplate, Declination, strings.Join(contents, "\n\n"))

	genCtx, cancel := context.WithTimeout(ctx, c.cfg.GenTimeout)
	defer cancel()
	text, err := c.generator.Generate(genCtx, prompt, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrGeneration, err)
	}

	names := c.resolveNames(ctx, evidence)
	sources := make([]Source, len(evidence))
	for i, ev := range evidence {
		name, ok := names[ev.DocumentID]
		if !ok || name == "" {
			name = unknownSource
		}
		sources[i] = Source{Content: ev.Content, Similarity: ev.Similarity, Filename: name}
	}

	return &Answer{Answer: text, Sources: sources}, nil
}

// resolveNames is best-effort: a lookup failure degrades attribution to
// "Unknown source" rather than failing an already-generated answer.
func (c *Composer) resolveNames(ctx context.Context, evidence []retrieval.Result) map[string]string {
	seen := make(map[string]struct{}, len(evidence))
	ids := make([]string, 0, len(evidence))
	for _, ev := range evidence {
		if _, ok := seen[ev.DocumentID]; ok {
			continue
		}
		seen[ev.DocumentID] = struct{}{}
		ids = append(ids, ev.DocumentID)
	}

	names, err := c.namer.GetNames(ctx, ids)
	if err != nil {
		return map[string]string{}
	}
	return names
}
