package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL+"/", "123:abc",
		WithHTTPClient(srv.Client()),
		WithClientLogger(quietLogger()),
		WithRetryPolicy(3, time.Millisecond),
	)
	c.retryAfter = time.Millisecond
	return c
}

func TestSendMessagePostsJSON(t *testing.T) {
	var got SendMessageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/bot123:abc/sendMessage", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"ok":true,"result":{"message_id":1}}`)
	})

	err := c.SendMessage(context.Background(), SendMessageRequest{
		ChatID:      42,
		Text:        "<b>hi</b>",
		ParseMode:   ParseModeHTML,
		ReplyMarkup: MainKeyboard(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), got.ChatID)
	require.Equal(t, ParseModeHTML, got.ParseMode)
	require.True(t, got.ReplyMarkup.ResizeKeyboard)
	require.True(t, got.ReplyMarkup.IsPersistent)
	require.Len(t, got.ReplyMarkup.Keyboard, 3)
}

func TestGetUpdatesDecodesResult(t *testing.T) {
	var req getUpdatesRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		io.WriteString(w, `{"ok":true,"result":[{"update_id":7,"message":{"message_id":3,"from":{"id":9,"is_bot":false,"first_name":"Ann"},"chat":{"id":9,"type":"private"},"date":0,"text":"hello"}}]}`)
	})

	updates, err := c.GetUpdates(context.Background(), 5, 30*time.Second)
	require.NoError(t, err)
	require.Equal(t, int64(5), req.Offset)
	require.Equal(t, 30, req.Timeout)
	require.Equal(t, []string{"message"}, req.AllowedUpdates)
	require.Len(t, updates, 1)
	require.Equal(t, int64(7), updates[0].UpdateID)
	require.Equal(t, "Ann", updates[0].Message.From.FirstName)
	require.Equal(t, "hello", updates[0].Message.Text)
}

func TestClientRetriesFloodControl(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":2}}`)
			return
		}
		io.WriteString(w, `{"ok":true,"result":true}`)
	})

	require.NoError(t, c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "x"}))
	require.Equal(t, int32(2), calls.Load())
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `<html>bad gateway</html>`)
	})

	err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "x"})
	require.Error(t, err)
	require.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
	})

	err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, 400, apiErr.Code)
	require.Equal(t, "sendMessage", apiErr.Method)
	require.Equal(t, int32(1), calls.Load())
}

func TestClientRedactsToken(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "123:secret-token",
		WithClientLogger(quietLogger()),
		WithRetryPolicy(1, time.Millisecond),
	)
	err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "x"})
	require.Error(t, err)
	require.False(t, strings.Contains(err.Error(), "secret-token"), err.Error())
}
