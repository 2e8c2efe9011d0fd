package ai_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/talent-coach/backend/internal/service/ai"
)

type fakeChatModel struct {
	mu     sync.Mutex
	reply  string
	err    error
	block  bool
	calls  int
	inputs [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.calls++
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func turnVars(query string) map[string]string {
	return map[string]string{
		ai.VarCoachPersonality: "supportive",
		ai.VarCoachStyle:       "warm",
		ai.VarLevel:            "intermediate",
		ai.VarFocusArea:        "technical skills",
		ai.VarScenarioType:     "software engineer",
		ai.VarPreviousResponse: "Welcome!",
		ai.VarQuery:            query,
	}
}

func newService(t *testing.T, m *fakeChatModel, timeout time.Duration) *ai.Service {
	t.Helper()
	svc, err := ai.NewService(context.Background(), m, ai.Options{Timeout: timeout})
	require.NoError(t, err)
	return svc
}

func TestCompleteTurn(t *testing.T) {
	m := &fakeChatModel{reply: "[COACH FEEDBACK]: good question"}
	svc := newService(t, m, time.Second)

	text, err := svc.Complete(context.Background(), ai.PurposeTurn, turnVars("Tell me about yourself"))
	require.NoError(t, err)
	assert.Equal(t, "[COACH FEEDBACK]: good question", text)

	require.Len(t, m.inputs, 1)
	msgs := m.inputs[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "software engineer")
	assert.Contains(t, msgs[0].Content, "supportive")
	assert.Contains(t, msgs[1].Content, "Tell me about yourself")
	assert.Contains(t, msgs[1].Content, "Welcome!")
}

func TestCompleteReport(t *testing.T) {
	m := &fakeChatModel{reply: "# Report"}
	svc := newService(t, m, time.Second)

	text, err := svc.Complete(context.Background(), ai.PurposeReport, map[string]string{ai.VarLog: "entry one\n\nentry two"})
	require.NoError(t, err)
	assert.Equal(t, "# Report", text)
	assert.Contains(t, m.inputs[0][1].Content, "entry one\n\nentry two")
}

func TestCompleteEmptyOutputIsError(t *testing.T) {
	svc := newService(t, &fakeChatModel{reply: "   "}, time.Second)

	_, err := svc.Complete(context.Background(), ai.PurposeReport, map[string]string{ai.VarLog: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrEmptyCompletion))
}

func TestCompleteTimeout(t *testing.T) {
	svc := newService(t, &fakeChatModel{block: true}, 20*time.Millisecond)

	started := time.Now()
	_, err := svc.Complete(context.Background(), ai.PurposeTurn, turnVars("hello"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrTimeout))
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestCompleteModelFailure(t *testing.T) {
	m := &fakeChatModel{err: errors.New("quota exceeded")}
	svc := newService(t, m, time.Second)

	_, err := svc.Complete(context.Background(), ai.PurposeTurn, turnVars("hello"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ai.ErrTimeout))
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, m.calls, "completions are not retried")
}

func TestCompleteUnknownPurpose(t *testing.T) {
	m := &fakeChatModel{reply: "x"}
	svc := newService(t, m, time.Second)

	_, err := svc.Complete(context.Background(), ai.Purpose("summary"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrUnknownPurpose))
	assert.Zero(t, m.calls)
}

func TestNewServiceRequiresModel(t *testing.T) {
	_, err := ai.NewService(context.Background(), nil, ai.Options{})
	assert.Error(t, err)
}

func TestRenderPrompt(t *testing.T) {
	msgs, err := ai.RenderPrompt(context.Background(), ai.PurposeTurn, turnVars("What motivates you?"))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "intermediate")
	assert.Contains(t, msgs[0].Content, "technical skills")
	assert.Contains(t, msgs[1].Content, "What motivates you?")

	_, err = ai.RenderPrompt(context.Background(), ai.Purpose("nope"), nil)
	assert.True(t, errors.Is(err, ai.ErrUnknownPurpose))
}
