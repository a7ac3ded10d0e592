// Package generator talks to an OpenAI-compatible completion API to invent and
// match coupon codes.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/fairyhunter13/ai-coupon-service/internal/generator"

	maxTokens        = 10
	generateTemp     = 0.7
	matchTemp        = 0.2
	noMatchIndicator = "None"
)

// ErrEmptyCompletion is returned when the API answers without any choice.
var ErrEmptyCompletion = errors.New("completion returned no choices")

// Config holds the connection settings of the completion API.
type Config struct {
	APIKey  string
	BaseURL string // empty means the public OpenAI endpoint
	Model   string
	Timeout time.Duration
}

// OpenAI generates and matches coupon codes with a text completion model.
type OpenAI struct {
	client *openai.Client
	model  string
	tracer trace.Tracer
}

// NewOpenAI creates an OpenAI code generator.
func NewOpenAI(cfg Config) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5TurboInstruct
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		tracer: otel.Tracer(tracerName),
	}
}

// Generate asks the model for a catchy code for store and discount.
// Whitespace is stripped from the answer; no other format check is applied.
func (g *OpenAI) Generate(ctx context.Context, store string, discount float64) (string, error) {
	ctx, span := g.tracer.Start(ctx, "generator.generate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("coupon.store", store),
		attribute.Float64("coupon.discount", discount),
	)

	text, err := g.complete(ctx, generatePrompt(store, discount), generateTemp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("generate coupon code: %w", err)
	}

	code := strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	span.SetAttributes(attribute.String("coupon.code", code))
	return code, nil
}

// Match asks the model which of the known codes best fits query.
// ok is false when the model answers with the none indicator or nothing at all.
func (g *OpenAI) Match(ctx context.Context, query string, known []string) (string, bool, error) {
	ctx, span := g.tracer.Start(ctx, "generator.match", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.Int("coupon.candidates", len(known)))

	text, err := g.complete(ctx, matchPrompt(query, known), matchTemp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", false, fmt.Errorf("match coupon code: %w", err)
	}

	match := strings.TrimSpace(text)
	if match == "" || match == noMatchIndicator {
		return "", false, nil
	}
	return match, true, nil
}

func (g *OpenAI) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := g.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       g.model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Text, nil
}

func generatePrompt(store string, discount float64) string {
	return fmt.Sprintf("Generate a unique, catchy coupon code for %s offering %s%% discount. "+
		"The code should be uppercase, without spaces or special characters.", store, formatDiscount(discount))
}

func matchPrompt(query string, known []string) string {
	return fmt.Sprintf("Given the user input: %q\n"+
		"And the list of valid coupon codes: %s\n"+
		"Return the best matching coupon code or '%s' if no match.\n",
		query, formatCodes(known), noMatchIndicator)
}

// formatDiscount always keeps a fractional part: 10 -> "10.0", 12.5 -> "12.5".
func formatDiscount(discount float64) string {
	s := strconv.FormatFloat(discount, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// formatCodes renders codes as a quoted list: ['A', 'B'].
func formatCodes(known []string) string {
	quoted := make([]string, len(known))
	for i, code := range known {
		quoted[i] = "'" + code + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
