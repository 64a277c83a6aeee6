package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChatModel_RequiresKey(t *testing.T) {
	_, err := NewChatModel(" ", "", "", 0)
	assert.Error(t, err)

	m, err := NewChatModel("k", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultModelName, m.ModelName())
}

func TestChatModel_Generate(t *testing.T) {
	var received chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"id":"c1","model":"qwen-turbo","choices":[{"index":0,"message":{"role":"assistant","content":"Solid Go background."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	m, err := NewChatModel("test-key", "qwen-turbo", server.URL, 5*time.Second)
	require.NoError(t, err)

	msg, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("You review resumes."),
		schema.UserMessage("Requirements: go"),
	}, model.WithTemperature(0.2))
	require.NoError(t, err)

	assert.Equal(t, "Solid Go background.", msg.Content)
	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, "qwen-turbo", received.Model)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, "system", received.Messages[0].Role)
	require.NotNil(t, received.Temperature)
	assert.InDelta(t, 0.2, *received.Temperature, 0.0001)
}

func TestChatModel_GenerateErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	m, err := NewChatModel("k", "", server.URL, time.Second)
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestChatModel_GenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	m, err := NewChatModel("k", "", server.URL, time.Second)
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	assert.Error(t, err)
}

func TestChatModel_WithToolsDoesNotMutate(t *testing.T) {
	m, err := NewChatModel("k", "", "", 0)
	require.NoError(t, err)

	withTools, err := m.WithTools([]*schema.ToolInfo{{Name: "lookup", Desc: "look up"}, nil})
	require.NoError(t, err)
	assert.Empty(t, m.tools)
	assert.Len(t, withTools.(*ChatModel).tools, 1)
}

type flakyModel struct {
	errs  []error
	calls int
}

func (f *flakyModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return schema.AssistantMessage("ok", nil), nil
}

func (f *flakyModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func (f *flakyModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

func TestRateLimitedChatModel_RetriesRetryableErrors(t *testing.T) {
	inner := &flakyModel{errs: []error{errors.New("429 Too Many Requests")}}
	m := NewRateLimitedChatModel(inner, 600).WithRetryPolicy(time.Millisecond, 2)

	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, 2, inner.calls)
}

func TestRateLimitedChatModel_StopsOnPermanentError(t *testing.T) {
	inner := &flakyModel{errs: []error{errors.New("invalid api key")}}
	m := NewRateLimitedChatModel(inner, 600).WithRetryPolicy(time.Millisecond, 3)

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
