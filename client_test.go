package plantuml

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRendererStub serves a fake PlantUML server that decodes the token from
// the URL path and answers with a marker derived from the decoded text.
func newRendererStub(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
		if len(parts) != 2 {
			http.Error(w, "bad path", http.StatusBadRequest)
			return
		}
		format, token := parts[0], parts[1]

		text, err := Decode(token)
		if err != nil {
			http.Error(w, "bad token", http.StatusBadRequest)
			return
		}
		if strings.Contains(text, "syntax-error") {
			http.Error(w, "Syntax error at line 2", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("image:" + format + ":" + text))
	}))
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("")
	assert.Equal(t, DefaultServerURL, client.BaseURL())

	// A missing trailing slash is added so DiagramURL stays well-formed.
	client = NewClient("http://example.com/plantuml")
	assert.Equal(t, "http://example.com/plantuml/", client.BaseURL())
}

func TestDiagramURL(t *testing.T) {
	client := NewClient("http://example.com/plantuml/")
	assert.Equal(t, "http://example.com/plantuml/svg/ABC123", client.DiagramURL("ABC123", FormatSVG))
	assert.Equal(t, "http://example.com/plantuml/png/ABC123", client.DiagramURL("ABC123", FormatPNG))
}

func TestClientRender(t *testing.T) {
	server := newRendererStub(t)
	defer server.Close()

	client := NewClient(server.URL + "/")
	image, err := client.Render(context.Background(), "Alice -> Bob: hello", FormatSVG)
	require.NoError(t, err)

	// The stub echoes the decoded text, proving the full prepare/encode/
	// fetch/decode loop is wire-consistent.
	got := string(image)
	assert.True(t, strings.HasPrefix(got, "image:svg:"))
	assert.Contains(t, got, "@startuml\nAlice -> Bob: hello\n@enduml")
}

func TestClientRenderPNGInjectsDirectives(t *testing.T) {
	server := newRendererStub(t)
	defer server.Close()

	client := NewClient(server.URL + "/")
	image, err := client.Render(context.Background(), "Alice -> Bob: hello", FormatPNG)
	require.NoError(t, err)

	got := string(image)
	assert.Contains(t, got, "skinparam dpi 400")
	assert.Contains(t, got, "scale 2")
}

func TestClientFetchStatusError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "no such diagram", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", WithRetryPolicy(DefaultRetryPolicy()))
	_, err := client.Fetch(context.Background(), "XXXX", FormatSVG)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "no such diagram")

	// 4xx answers are deterministic and must not be retried.
	assert.Equal(t, int32(1), requests.Load())
	assert.ErrorIs(t, err, ErrNonRetriable)
}

func TestClientFetchRetriesServerErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			http.Error(w, "renderer overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", WithRetryPolicy(RetryPolicy{
		MaxRetries:  3,
		BackoffBase: 1,
		BackoffMax:  1,
	}))
	image, err := client.Fetch(context.Background(), "XXXX", FormatSVG)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(image))
	assert.Equal(t, int32(3), requests.Load())
}

func TestClientValidate(t *testing.T) {
	server := newRendererStub(t)
	defer server.Close()

	client := NewClient(server.URL+"/", WithRetryPolicy(NoRetry()))

	t.Run("valid diagram", func(t *testing.T) {
		result := client.Validate(context.Background(), "Alice -> Bob: hello")
		assert.True(t, result.Valid)
		assert.Empty(t, result.Error)
	})

	t.Run("invalid diagram", func(t *testing.T) {
		result := client.Validate(context.Background(), "syntax-error here")
		assert.False(t, result.Valid)
		assert.Contains(t, result.Error, "Syntax error")
	})
}

func TestClientFetchConnectionRefused(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/", WithRetryPolicy(NoRetry()))
	_, err := client.Fetch(context.Background(), "XXXX", FormatSVG)
	require.Error(t, err)

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
