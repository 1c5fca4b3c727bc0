package generation

import (
	"context"
	"errors"

	"github.com/execcoach/coach/internal/model"
)

var (
	ErrGenerationTimeout     = errors.New("text generation timed out")
	ErrGenerationUnavailable = errors.New("text generation unavailable")
)

// Request is one call to the text-generation service.
type Request struct {
	SystemPrompt string
	Bundle       *model.ContextBundle
	UserText     string
}

type Response struct {
	Text string
}

// Provider defines the interface that all text-generation backends must implement
type Provider interface {
	// Generate returns the response text or an explicit error. It must honour ctx.
	Generate(ctx context.Context, req Request) (Response, error)

	// Name returns the provider name (e.g., "gemini")
	Name() string
}

// unavailableProvider stands in when no generation credential is configured.
type unavailableProvider struct{}

func (unavailableProvider) Generate(context.Context, Request) (Response, error) {
	return Response{}, ErrGenerationUnavailable
}

func (unavailableProvider) Name() string {
	return "none"
}
