package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liteclaw/webbridge/internal/channels"
	"github.com/liteclaw/webbridge/internal/web"
)

type envelope struct {
	Status   int              `json:"status"`
	Messages []map[string]any `json:"messages"`
	Error    string           `json:"error"`
}

func newTestBot(t *testing.T, defaults bool) *Bot {
	t.Helper()
	registry := channels.NewRegistry(nil)
	require.NoError(t, registry.Register(web.NewFactory(web.Config{
		MatchingData: map[string]string{"driver": "web"},
	}, zerolog.Nop())))

	b := New(registry, zerolog.Nop())
	if defaults {
		require.NoError(t, RegisterDefaults(b))
	}
	return b
}

func handle(t *testing.T, b *Bot, body map[string]any, files ...any) envelope {
	t.Helper()
	resp, err := b.Handle(context.Background(), &channels.Request{Method: http.MethodPost, Body: body, Files: files})
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body, &env))
	assert.Equal(t, resp.StatusCode, env.Status)
	return env
}

func TestBot_NoDriver(t *testing.T) {
	b := newTestBot(t, true)
	_, err := b.Handle(context.Background(), &channels.Request{Body: map[string]any{"message": "hi"}})
	assert.True(t, errors.Is(err, channels.ErrNoDriver))
}

func TestBot_HearsIsCaseInsensitiveAndWhole(t *testing.T) {
	b := newTestBot(t, false)
	require.NoError(t, b.Hears(`call me (\w+)`, func(_ context.Context, conv *Conversation) error {
		conv.Say("Hello " + conv.Matches()[0])
		return nil
	}))

	env := handle(t, b, map[string]any{"driver": "web", "message": "CALL ME Ada"})
	require.Len(t, env.Messages, 1)
	assert.Equal(t, "Hello Ada", env.Messages[0]["text"])

	env = handle(t, b, map[string]any{"driver": "web", "message": "please call me Ada"})
	assert.Empty(t, env.Messages)
	assert.Equal(t, http.StatusOK, env.Status)
}

func TestBot_InvalidPattern(t *testing.T) {
	b := newTestBot(t, false)
	assert.Error(t, b.Hears("(", nil))
}

func TestBot_FirstListenerWins(t *testing.T) {
	b := newTestBot(t, false)
	require.NoError(t, b.Hears("hi", func(_ context.Context, conv *Conversation) error {
		conv.Say("first")
		return nil
	}))
	require.NoError(t, b.Hears("h.", func(_ context.Context, conv *Conversation) error {
		conv.Say("second")
		return nil
	}))

	env := handle(t, b, map[string]any{"driver": "web", "message": "hi"})
	require.Len(t, env.Messages, 1)
	assert.Equal(t, "first", env.Messages[0]["text"])
}

func TestBot_HandlerErrorKeepsReplies(t *testing.T) {
	b := newTestBot(t, false)
	b.Fallback(func(_ context.Context, conv *Conversation) error {
		conv.Say("partial")
		return errors.New("boom")
	})

	env := handle(t, b, map[string]any{"driver": "web", "message": "x"})
	require.Len(t, env.Messages, 1)
	assert.Equal(t, http.StatusOK, env.Status)
}

func TestBot_Defaults(t *testing.T) {
	b := newTestBot(t, true)

	env := handle(t, b, map[string]any{"driver": "web", "message": "Ping", "userId": "u1"})
	require.Len(t, env.Messages, 1)
	assert.Equal(t, "pong", env.Messages[0]["text"])
	assert.Nil(t, env.Messages[0]["attachment"])

	env = handle(t, b, map[string]any{"driver": "web", "message": "hello there"})
	require.Len(t, env.Messages, 1)
	assert.Equal(t, "You said: hello there", env.Messages[0]["text"])

	env = handle(t, b, map[string]any{"driver": "web", "message": "help"})
	require.Len(t, env.Messages, 1)
	assert.Equal(t, "actions", env.Messages[0]["type"])
	assert.Len(t, env.Messages[0]["actions"], 2)

	env = handle(t, b, map[string]any{"driver": "web", "message": "typing"})
	require.Len(t, env.Messages, 2)
	assert.Equal(t, "typing_indicator", env.Messages[0]["type"])
	assert.Equal(t, "Done typing.", env.Messages[1]["text"])
}

func TestBot_InteractiveAnswer(t *testing.T) {
	b := newTestBot(t, true)
	env := handle(t, b, map[string]any{"driver": "web", "message": "Blue", "value": "blue", "interactive": "1"})
	require.Len(t, env.Messages, 1)
	assert.Equal(t, "You picked blue.", env.Messages[0]["text"])
}

func TestBot_AttachmentSummary(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.txt")
	second := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(first, []byte("one"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("two"), 0o600))

	b := newTestBot(t, true)
	env := handle(t, b, map[string]any{"driver": "web", "attachment": "file"}, first, second)
	require.Len(t, env.Messages, 1)
	assert.Equal(t, "Received 2 file attachment(s).", env.Messages[0]["text"])

	attachment, ok := env.Messages[0]["attachment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "file", attachment["type"])

	_, data, err := web.ParseDataURI(attachment["url"].(string))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestBot_AttachmentFailure(t *testing.T) {
	b := newTestBot(t, true)
	env := handle(t, b, map[string]any{"driver": "web", "attachment": "image"}, filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, http.StatusInternalServerError, env.Status)
	assert.Empty(t, env.Messages)
	assert.NotEmpty(t, env.Error)
}

func TestBot_CancelledContext(t *testing.T) {
	b := newTestBot(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := b.Handle(ctx, &channels.Request{Body: map[string]any{"driver": "web", "message": "ping"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":200,"messages":[]}`, string(resp.Body))
}
