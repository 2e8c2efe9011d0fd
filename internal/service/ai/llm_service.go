package ai

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single completion when Options.Timeout is zero.
const DefaultTimeout = 60 * time.Second

var (
	// ErrEmptyCompletion is returned when the model answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrTimeout is returned when a completion exceeds its deadline.
	ErrTimeout = errors.New("completion timed out")
	// ErrUnknownPurpose is returned for a purpose with no prompt template.
	ErrUnknownPurpose = errors.New("unknown completion purpose")
)

// Options tunes the completion service.
type Options struct {
	Timeout time.Duration
}

// Service runs prompt templates through a chat model.
type Service struct {
	chatModel model.ChatModel
	chains    map[Purpose]compose.Runnable[map[string]any, *schema.Message]
	timeout   time.Duration

	tracer   trace.Tracer
	latency  metric.Float64Histogram
	failures metric.Int64Counter
}

// NewService compiles one chain per purpose around chatModel.
func NewService(ctx context.Context, chatModel model.ChatModel, opts Options) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	chains := make(map[Purpose]compose.Runnable[map[string]any, *schema.Message], 2)
	for _, purpose := range []Purpose{PurposeTurn, PurposeReport} {
		tpl, _ := templateFor(purpose)

		chain := compose.NewChain[map[string]any, *schema.Message]()
		chain.AppendChatTemplate(tpl)
		chain.AppendChatModel(chatModel)

		runnable, err := chain.Compile(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "compile %s chain", purpose)
		}
		chains[purpose] = runnable
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	meter := otel.Meter("talent-coach/ai")
	latency, err := meter.Float64Histogram("ai.completion.duration",
		metric.WithDescription("Completion latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, errors.Wrap(err, "create latency histogram")
	}
	failures, err := meter.Int64Counter("ai.completion.failures",
		metric.WithDescription("Failed completions"))
	if err != nil {
		return nil, errors.Wrap(err, "create failure counter")
	}

	return &Service{
		chatModel: chatModel,
		chains:    chains,
		timeout:   timeout,
		tracer:    otel.Tracer("talent-coach/ai"),
		latency:   latency,
		failures:  failures,
	}, nil
}

// Complete renders the template for purpose with vars and returns the model's text.
// The call fails on timeout or when the model returns nothing; it is never retried.
func (s *Service) Complete(ctx context.Context, purpose Purpose, vars map[string]string) (string, error) {
	chain, ok := s.chains[purpose]
	if !ok {
		return "", errors.Wrapf(ErrUnknownPurpose, "%q", purpose)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "ai.complete",
		trace.WithAttributes(attribute.String("ai.purpose", string(purpose))))
	defer span.End()

	started := time.Now()
	text, err := s.invoke(ctx, chain, vars)
	elapsed := time.Since(started)

	attrs := metric.WithAttributes(attribute.String("ai.purpose", string(purpose)))
	s.latency.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		s.failures.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("ai.output_chars", len(text)))
	log.Debug().
		Str("purpose", string(purpose)).
		Dur("elapsed", elapsed).
		Int("length", len(text)).
		Msg("completion finished")
	return text, nil
}

func (s *Service) invoke(ctx context.Context, chain compose.Runnable[map[string]any, *schema.Message], vars map[string]string) (string, error) {
	msg, err := chain.Invoke(ctx, toInput(vars))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errors.Wrapf(ErrTimeout, "after %s", s.timeout)
		}
		return "", errors.Wrap(err, "run completion chain")
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return msg.Content, nil
}

// RenderPrompt formats the template for purpose without calling the model.
func RenderPrompt(ctx context.Context, purpose Purpose, vars map[string]string) ([]*schema.Message, error) {
	tpl, ok := templateFor(purpose)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPurpose, "%q", purpose)
	}
	msgs, err := tpl.Format(ctx, toInput(vars))
	if err != nil {
		return nil, errors.Wrapf(err, "render %s prompt", purpose)
	}
	return msgs, nil
}

// ChatModel returns the underlying chat model.
func (s *Service) ChatModel() model.ChatModel {
	return s.chatModel
}

func toInput(vars map[string]string) map[string]any {
	input := make(map[string]any, len(vars))
	for k, v := range vars {
		input[k] = v
	}
	return input
}
