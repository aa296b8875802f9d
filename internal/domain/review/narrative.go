package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const summaryInstruction = `Write a performance summary for this review with four sections:

## Strengths
Two or three areas where the manager excels, with the specific scores behind them.

## Growth opportunities
Two or three areas to improve, phrased constructively.

## Development recommendations
Two or three concrete next steps the manager can take.

## Overall summary
One balanced paragraph on performance and potential.

Be specific, use the numbers from the review, and keep a constructive tone.
Where a score is marked "not yet scored" or a metric has no data, say so
plainly instead of inventing a value.`

const chatSystemPreamble = `You are an organizational advisor for a restaurant
chain, helping HQ staff interpret manager performance reviews. Answer based on
the review data below. Be focused and practical; when the data is missing or a
score is not yet entered, say so rather than guessing.`

// Generator is the text-generation service. Implementations may fail per
// model; the pipeline owns the fallback order.
type Generator interface {
	Generate(ctx context.Context, system, prompt, model string, maxTokens int) (string, error)
}

// Pipeline turns a scored review into prose. Models are tried in order from
// most to least capable; each attempt is bounded by Timeout so worst-case
// latency is Timeout times the list length.
type Pipeline struct {
	Generator Generator
	Models    []string
	Timeout   time.Duration
	MaxTokens int
}

func NewPipeline(generator Generator, models []string, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Pipeline{Generator: generator, Models: models, Timeout: timeout, MaxTokens: 4096}
}

// Summarize produces the canonical narrative for the review context document.
func (p *Pipeline) Summarize(ctx context.Context, contextDoc string) (string, error) {
	return p.run(ctx, contextDoc, summaryInstruction)
}

// Chat answers a one-shot follow-up question against the same context
// document. Nothing is persisted; each call stands alone.
func (p *Pipeline) Chat(ctx context.Context, contextDoc, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", validationf("question", "is required")
	}
	return p.run(ctx, chatSystemPreamble+"\n\n"+contextDoc, question)
}

func (p *Pipeline) run(ctx context.Context, system, prompt string) (string, error) {
	if p.Generator == nil || len(p.Models) == 0 {
		return "", fmt.Errorf("%w: no generation models configured", ErrNarrativeUnavailable)
	}

	var failures []string
	for _, model := range p.Models {
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		text, err := p.Generator.Generate(attemptCtx, system, prompt, model, p.MaxTokens)
		cancel()
		if err == nil && strings.TrimSpace(text) != "" {
			return text, nil
		}
		if err == nil {
			err = errors.New("empty response")
		}
		slog.Warn("narrative model failed, trying next", "model", model, "err", err)
		failures = append(failures, fmt.Sprintf("%s: %v", model, err))
		if ctx.Err() != nil {
			// Caller gone; no point in walking the rest of the list.
			break
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNarrativeUnavailable, strings.Join(failures, "; "))
}
