package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "queryapi",
		Subsystem: "ai",
		Name:      "intent_duration_seconds",
		Help:      "Duration of intent parsing requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "queryapi",
		Subsystem: "ai",
		Name:      "intent_failures_total",
		Help:      "Number of failed intent parsing requests",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI intent parser.
// BaseURL may point at any OpenAI compatible endpoint.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// OpenAIIntentParser implements IntentParser against the chat completion API.
type OpenAIIntentParser struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIIntentParser builds a parser using the provided configuration.
func NewOpenAIIntentParser(cfg OpenAIConfig) (*OpenAIIntentParser, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	tracer := otel.Tracer("github.com/noah-isme/scoped-query-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIIntentParser{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger.With().Str("component", "openai_intent_parser").Logger(),
	}, nil
}

// ParseIntent asks the model for a JSON intent describing the question.
func (p *OpenAIIntentParser) ParseIntent(parent context.Context, req IntentRequest) (IntentResponse, error) {
	ctx, cancel := context.WithTimeout(parent, p.cfg.Timeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "openai.parse_intent", trace.WithAttributes(
		attribute.String("model", p.cfg.Model),
		attribute.Int("columns", len(req.Columns)),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.MaxTokens,
		Temperature: p.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: intentSystemPrompt(req.Columns),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Query,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := p.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(p.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return IntentResponse{}, p.fail(span, fmt.Errorf("openai parse intent: %w", err))
	}

	if len(resp.Choices) == 0 {
		return IntentResponse{}, p.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	content := extractJSONObject(resp.Choices[0].Message.Content)
	if content == "" {
		return IntentResponse{}, p.fail(span, fmt.Errorf("openai returned an empty intent"))
	}

	p.logger.Debug().Str("model", p.cfg.Model).Str("intent", content).Msg("intent parsed")
	return IntentResponse{
		Content: content,
		Model:   p.cfg.Model,
		Raw: map[string]interface{}{
			"usage": resp.Usage,
		},
	}, nil
}

func (p *OpenAIIntentParser) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues(p.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	p.logger.Warn().Err(err).Msg("intent parsing failed")
	return err
}

func intentSystemPrompt(columns []string) string {
	builder := strings.Builder{}
	builder.WriteString("You translate questions about student records into a JSON query object.\n\n")
	builder.WriteString("Available columns: ")
	builder.WriteString(strings.Join(columns, ", "))
	builder.WriteString("\n\nReturn a JSON object with these keys:\n")
	builder.WriteString("- intent: one of list, count, filter, show\n")
	builder.WriteString("- filters: object mapping a column to a literal (equality) or to {\"operator\": \">\", \"value\": 80}; operators are >, <, >=, <=, !=, =\n")
	builder.WriteString("- date_filter: today, yesterday, last_week, last_month, next_week or null\n")
	builder.WriteString("- specific_date: YYYY-MM-DD or null\n")
	builder.WriteString("- sort_by: column to sort by in descending order, or null\n")
	builder.WriteString("- limit: maximum number of rows, or null\n\n")
	builder.WriteString("homework_status is either \"submitted\" or \"not_submitted\". ")
	builder.WriteString("Pending, not submitted and haven't submitted mean not_submitted; completed and done mean submitted.\n\n")
	builder.WriteString("Examples:\n")
	builder.WriteString("Which students haven't submitted homework? -> {\"intent\": \"list\", \"filters\": {\"homework_status\": \"not_submitted\"}}\n")
	builder.WriteString("Show me Grade 8 students who scored above 80 -> {\"intent\": \"list\", \"filters\": {\"grade\": 8, \"quiz_score\": {\"operator\": \">\", \"value\": 80}}}\n")
	builder.WriteString("Count students with pending homework -> {\"intent\": \"count\", \"filters\": {\"homework_status\": \"not_submitted\"}}\n")
	builder.WriteString("Show top 5 performers -> {\"intent\": \"list\", \"filters\": {}, \"sort_by\": \"quiz_score\", \"limit\": 5}\n")
	builder.WriteString("\nReturn JSON only.")
	return builder.String()
}

// extractJSONObject strips markdown fences and surrounding prose some
// providers add around the JSON body.
func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}
