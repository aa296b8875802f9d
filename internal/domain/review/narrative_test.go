package review

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeGenerator struct {
	failUntil int
	calls     []string
	response  string
	err       error
}

func (g *fakeGenerator) Generate(ctx context.Context, system, prompt, model string, maxTokens int) (string, error) {
	g.calls = append(g.calls, model)
	if g.err != nil {
		return "", g.err
	}
	if len(g.calls) <= g.failUntil {
		return "", errors.New("model overloaded")
	}
	return g.response, nil
}

func TestPipelineFallsBackThroughModels(t *testing.T) {
	gen := &fakeGenerator{failUntil: 2, response: "summary text"}
	p := NewPipeline(gen, []string{"model-a", "model-b", "model-c"}, time.Second)

	text, err := p.Summarize(context.Background(), "context doc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "summary text" {
		t.Fatalf("unexpected text: %q", text)
	}
	if len(gen.calls) != 3 {
		t.Fatalf("expected 3 attempts, got %v", gen.calls)
	}
	if gen.calls[0] != "model-a" || gen.calls[2] != "model-c" {
		t.Fatalf("models tried out of order: %v", gen.calls)
	}
}

func TestPipelineFirstModelWins(t *testing.T) {
	gen := &fakeGenerator{response: "ok"}
	p := NewPipeline(gen, []string{"model-a", "model-b"}, time.Second)

	if _, err := p.Summarize(context.Background(), "doc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected a single attempt, got %v", gen.calls)
	}
}

func TestPipelineAllModelsFail(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	p := NewPipeline(gen, []string{"model-a", "model-b"}, time.Second)

	_, err := p.Summarize(context.Background(), "doc")
	if !errors.Is(err, ErrNarrativeUnavailable) {
		t.Fatalf("expected ErrNarrativeUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "model-a") || !strings.Contains(err.Error(), "model-b") {
		t.Fatalf("error should name the failed models: %v", err)
	}
	if len(gen.calls) != 2 {
		t.Fatalf("expected both models tried, got %v", gen.calls)
	}
}

func TestPipelineNoModelsConfigured(t *testing.T) {
	p := NewPipeline(&fakeGenerator{response: "ok"}, nil, time.Second)
	if _, err := p.Summarize(context.Background(), "doc"); !errors.Is(err, ErrNarrativeUnavailable) {
		t.Fatalf("expected ErrNarrativeUnavailable, got %v", err)
	}
}

func TestPipelineStopsOnCancelledContext(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	p := NewPipeline(gen, []string{"model-a", "model-b", "model-c"}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Summarize(ctx, "doc")
	if !errors.Is(err, ErrNarrativeUnavailable) {
		t.Fatalf("expected ErrNarrativeUnavailable, got %v", err)
	}
	if len(gen.calls) > 1 {
		t.Fatalf("cancelled context should not walk the whole list: %v", gen.calls)
	}
}

func TestChatRequiresQuestion(t *testing.T) {
	p := NewPipeline(&fakeGenerator{response: "ok"}, []string{"model-a"}, time.Second)
	if _, err := p.Chat(context.Background(), "doc", "   "); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
