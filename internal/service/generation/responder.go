package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/execcoach/coach/internal/model"
)

// Reply is the outcome of one response attempt. Text is never empty.
type Reply struct {
	Text   string
	Source string
	// Err records why the fallback was used, nil for generated text.
	Err error
}

// Responder wraps a provider with a deadline and a mandatory fallback.
type Responder struct {
	provider Provider
	prompts  *PromptLibrary
	timeout  time.Duration
}

func NewResponder(provider Provider, prompts *PromptLibrary, timeout time.Duration) *Responder {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Responder{
		provider: provider,
		prompts:  prompts,
		timeout:  timeout,
	}
}

// Provider names the backing provider, "none" when generation is disabled.
func (r *Responder) Provider() string {
	return r.provider.Name()
}

type result struct {
	resp Response
	err  error
}

// Respond asks the provider for a reply. A provider that does not honour
// cancellation is abandoned once the deadline passes.
func (r *Responder) Respond(ctx context.Context, variant model.AgentVariant, bundle *model.ContextBundle, userText string) Reply {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req := Request{
		SystemPrompt: r.prompts.For(variant).System(),
		Bundle:       bundle,
		UserText:     userText,
	}

	done := make(chan result, 1)
	go func() {
		resp, err := r.provider.Generate(ctx, req)
		done <- result{resp: resp, err: err}
	}()

	var err error
	select {
	case res := <-done:
		err = res.err
		if err == nil && res.resp.Text == "" {
			err = fmt.Errorf("%w: empty response", ErrGenerationUnavailable)
		}
		if err == nil {
			return Reply{Text: res.resp.Text, Source: model.SourceGemini}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrGenerationTimeout
		}
	case <-ctx.Done():
		err = ErrGenerationTimeout
		if errors.Is(ctx.Err(), context.Canceled) {
			err = fmt.Errorf("%w: %w", ErrGenerationUnavailable, ctx.Err())
		}
	}

	slog.Warn("generation failed, using fallback",
		"provider", r.provider.Name(),
		"variant", variant,
		"error", err,
	)

	return Reply{
		Text:   Fallback(variant, bundle, userText),
		Source: model.SourceFallback,
		Err:    err,
	}
}
