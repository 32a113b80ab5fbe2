package llm

import (
	"ai-trip-planner/internal/shared"
	"context"
	"errors"
	"fmt"
)

// Tool names a capability the model may use while answering.
type Tool string

const (
	ToolGoogleSearch  Tool = "google_search"
	ToolCodeExecution Tool = "code_execution"
)

// ErrNoContent is returned when a provider answers without any text.
var ErrNoContent = errors.New("no content generated")

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
// Providers ignore tools they cannot offer.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string, tools ...Tool) (ContentResponse, error)
}

// ToolSupporter is implemented by generators that know which tools they run.
type ToolSupporter interface {
	SupportsTool(t Tool) bool
}

// SupportsTool reports whether gen runs t. A generator that does not
// implement ToolSupporter is taken to run every tool it is given.
func SupportsTool(gen TextGenerator, t Tool) bool {
	if s, ok := gen.(ToolSupporter); ok {
		return s.SupportsTool(t)
	}
	return true
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// StatusError is a non-2xx answer from a provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s api error: status=%d body=%s", e.Provider, e.Code, e.Body)
}
