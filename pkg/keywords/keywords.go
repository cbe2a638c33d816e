// Package keywords extracts weighted keywords from free-text review
// feedback using a chat completion model.
package keywords

import (
	"context"
	"encoding/json"
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
	extractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gamify",
		Subsystem: "keywords",
		Name:      "extraction_duration_seconds",
		Help:      "Duration of keyword extraction requests",
	}, []string{"model"})

	extractionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gamify",
		Subsystem: "keywords",
		Name:      "extraction_failures_total",
		Help:      "Number of keyword extraction failures",
	}, []string{"model"})
)

// Extractor turns a text corpus into a keyword -> relevance weight map.
// Implementations must return an empty map, not nil, when nothing is found.
type Extractor interface {
	Extract(ctx context.Context, corpus string) (map[string]float64, error)
}

// OpenAIConfig defines configuration options for the OpenAI extractor.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	MaxKeywords int
	Logger      zerolog.Logger
}

// OpenAIExtractor implements Extractor against the OpenAI chat completion API.
type OpenAIExtractor struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIExtractor builds a new extractor using the provided configuration.
func NewOpenAIExtractor(cfg OpenAIConfig) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 256
	}

	if cfg.MaxKeywords == 0 {
		cfg.MaxKeywords = 15
	}

	tracer := otel.Tracer("github.com/peerflow/gamify-api/pkg/keywords")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAIExtractor{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Extract sends the corpus to OpenAI and parses the weighted keyword map.
func (e *OpenAIExtractor) Extract(parent context.Context, corpus string) (map[string]float64, error) {
	ctx, span := e.tracer.Start(parent, "keywords.extract", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Int("corpus_bytes", len(corpus)),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: extractorSystemPrompt(e.cfg.MaxKeywords),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: corpus,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := e.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	extractionDuration.WithLabelValues(e.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		extractionFailures.WithLabelValues(e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("openai extract: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		extractionFailures.WithLabelValues(e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	keywords, err := parseKeywordResponse(content)
	if err != nil {
		extractionFailures.WithLabelValues(e.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("keywords", len(keywords)))

	return keywords, nil
}

func extractorSystemPrompt(maxKeywords int) string {
	return fmt.Sprintf("You extract themes from peer feedback on student presentations. "+
		"Respond with a JSON object whose single key \"keywords\" maps at most %d "+
		"keyword strings to relevance weights between 0 and 1. Ignore filler words "+
		"and reviewer names.", maxKeywords)
}

func parseKeywordResponse(content string) (map[string]float64, error) {
	type payload struct {
		Keywords map[string]float64 `json:"keywords"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, fmt.Errorf("parse keyword json: %w", err)
	}

	if data.Keywords == nil {
		data.Keywords = map[string]float64{}
	}

	for keyword, weight := range data.Keywords {
		if weight < 0 {
			data.Keywords[keyword] = 0
		}
		if weight > 1 {
			data.Keywords[keyword] = 1
		}
	}

	return data.Keywords, nil
}
