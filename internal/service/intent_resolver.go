package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/scoped-query-api/internal/models"
	"github.com/noah-isme/scoped-query-api/pkg/ai"
)

// IntentResolutionError reports a resolver that failed or produced an unusable intent.
type IntentResolutionError struct {
	Query string
	Err   error
}

func (e *IntentResolutionError) Error() string {
	return fmt.Sprintf("resolve intent for %q: %v", e.Query, e.Err)
}

func (e *IntentResolutionError) Unwrap() error {
	return e.Err
}

// IntentResolver turns a free-text question into a QueryIntent.
type IntentResolver interface {
	Resolve(ctx context.Context, query string, columns []string) (models.QueryIntent, error)
}

type llmIntentResolver struct {
	parser ai.IntentParser
	logger zerolog.Logger
}

// NewLLMIntentResolver resolves intents through a language model and treats
// its answer as untrusted input.
func NewLLMIntentResolver(parser ai.IntentParser, logger zerolog.Logger) IntentResolver {
	return &llmIntentResolver{
		parser: parser,
		logger: logger.With().Str("component", "llm_intent_resolver").Logger(),
	}
}

func (r *llmIntentResolver) Resolve(ctx context.Context, query string, columns []string) (models.QueryIntent, error) {
	response, err := r.parser.ParseIntent(ctx, ai.IntentRequest{Query: query, Columns: columns})
	if err != nil {
		return models.QueryIntent{}, &IntentResolutionError{Query: query, Err: err}
	}

	intent, warnings, err := models.ParseQueryIntent([]byte(response.Content))
	if err != nil {
		return models.QueryIntent{}, &IntentResolutionError{Query: query, Err: err}
	}
	for _, warning := range warnings {
		r.logger.Warn().Str("model", response.Model).Msg(warning)
	}

	r.logger.Info().Str("intent", intent.Kind()).Int("filters", len(intent.Filters)).Msg("query parsed")
	return intent, nil
}
