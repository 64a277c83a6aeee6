package scoring

import (
	"context"
	"errors"
	"testing"

	"recruit-agent-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// nilGenerator 不报错但也不返回消息
type nilGenerator struct{}

func (nilGenerator) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return nil, nil
}

type panicProvider struct{}

func (panicProvider) Name() string    { return "panicky" }
func (panicProvider) Available() bool { return true }
func (panicProvider) Score(ctx context.Context, requirements string, facts *types.ResumeFacts) (types.ScoringResult, error) {
	panic("provider exploded")
}

func TestLLMProvider_NilMessageIsError(t *testing.T) {
	p := NewLLMProvider(nilGenerator{}, "m", 0)
	_, err := p.Score(context.Background(), "python", nil)
	assert.Error(t, err)
}

func TestEngine_FallsBackOnNilMessage(t *testing.T) {
	engine := NewEngine(NewLLMProvider(nilGenerator{}, "m", 0))
	var result types.ScoringResult
	require.NotPanics(t, func() {
		result = engine.Score(context.Background(), "python", facts(0, "python"))
	})
	assert.Equal(t, Score("python", facts(0, "python")), result)
}

func TestEngine_FallsBackOnPanic(t *testing.T) {
	engine := NewEngine(panicProvider{})
	var result types.ScoringResult
	require.NotPanics(t, func() {
		result = engine.Score(context.Background(), "python docker", facts(1500, "docker"))
	})
	assert.Equal(t, Score("python docker", facts(1500, "docker")), result)
}

func spanErrorType(t *testing.T, gen Generator) string {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	ctx, span := provider.Tracer("test").Start(context.Background(), "score")

	NewEngine(NewLLMProvider(gen, "qwen-turbo", 0)).Score(ctx, "python", nil)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	for _, kv := range spans[0].Attributes() {
		if kv.Key == attribute.Key("error.type") {
			return kv.Value.AsString()
		}
	}
	t.Fatal("span 上缺少 error.type")
	return ""
}

func TestEngine_FallbackRecordsErrorType(t *testing.T) {
	assert.Equal(t, "external_system", spanErrorType(t, &stubGenerator{err: errors.New("quota exceeded")}))
	assert.Equal(t, "timeout", spanErrorType(t, &stubGenerator{err: context.DeadlineExceeded}))
}
