package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func fakeValues(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "0.5"
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestGeminiEmbedder_PinsDimensions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/text-embedding-004:embedContent", r.URL.Path)
		require.Equal(t, "key", r.Header.Get("x-goog-api-key"))
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, int64(4), gjson.GetBytes(body, "outputDimensionality").Int())
		require.Equal(t, "hello", gjson.GetBytes(body, "content.parts.0.text").String())
		fmt.Fprintf(w, `{"embedding": {"values": %s}}`, fakeValues(4))
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder(GeminiConfig{APIKey: "key", BaseURL: srv.URL, Model: "models/text-embedding-004", Dimensions: 4})
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, vec, 4)
	require.InDelta(t, 0.5, vec[0], 1e-6)
}

func TestGeminiEmbedder_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `{"embedding": {"values": %s}}`, fakeValues(2))
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder(GeminiConfig{APIKey: "key", BaseURL: srv.URL, Model: "m", Dimensions: 2})
	require.NoError(t, err)
	e.delay = 0

	vec, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, vec, 2)
	require.Equal(t, int32(2), calls.Load())
}

func TestGeminiEmbedder_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad model"}}`))
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder(GeminiConfig{APIKey: "key", BaseURL: srv.URL, Model: "m", Dimensions: 2})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "x")
	require.ErrorContains(t, err, "bad model")
	require.Equal(t, int32(1), calls.Load())
}

func TestGeminiEmbedder_WrongWidth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"embedding": {"values": %s}}`, fakeValues(3))
	}))
	defer srv.Close()

	e, err := NewGeminiEmbedder(GeminiConfig{APIKey: "key", BaseURL: srv.URL, Model: "m", Dimensions: 2})
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "x")
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNewGeminiEmbedder_RequiresKey(t *testing.T) {
	_, err := NewGeminiEmbedder(GeminiConfig{Model: "m"})
	require.ErrorIs(t, err, ErrNotConfigured)
}
