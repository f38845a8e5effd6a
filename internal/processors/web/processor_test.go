package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title> Getting   Started </title>
  <style>body { color: red; }</style>
  <script>var tracking = "secret";</script>
</head>
<body>
  <header>Site Header</header>
  <nav><a href="/">Home</a> <a href="/docs">Docs</a></nav>
  <main>
    <h1>Install</h1>
    <p>Run the   installer.</p>
    <p>Then configure &amp; start.</p>
    <script>alert("inline");</script>
  </main>
  <footer>Copyright 2024</footer>
</body>
</html>`

func TestCanProcess(t *testing.T) {
	p := New(nil)
	assert.Equal(t, "web", p.Name())

	tests := []struct {
		location string
		want     bool
	}{
		{"https://example.com/docs", true},
		{"http://localhost:8080/page", true},
		{"ftp://example.com/file", false},
		{"/local/path/index.html", false},
		{"example.com", false},
		{"https://", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, p.CanProcess(tt.location, ""))
		})
	}
}

func TestProcess_StripsBoilerplate(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	chunks, err := New(nil).Process(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, DefaultUserAgent, gotUA)

	c := chunks[0]
	assert.Equal(t, "Install Run the installer. Then configure & start.", c.Text)
	for _, hidden := range []string{"Site Header", "Home", "Copyright", "tracking", "alert", "color"} {
		assert.NotContains(t, c.Text, hidden)
	}
	assert.Equal(t, "Getting Started", c.Metadata.Title)
	assert.Equal(t, server.URL, c.Metadata.URL)
	assert.Equal(t, server.URL, c.Metadata.Source)
	assert.Equal(t, "html", c.Metadata.FileType)
	assert.Equal(t, 0, c.Metadata.ChunkIndex)
}

func TestProcess_FixedSlices(t *testing.T) {
	body := "<html><body><p>" + strings.Repeat("a", 9000) + "</p></body></html>"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	chunks, err := New(nil).Process(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 4000, utf8.RuneCountInString(chunks[0].Text))
	assert.Equal(t, 4000, utf8.RuneCountInString(chunks[1].Text))
	assert.Equal(t, 1000, utf8.RuneCountInString(chunks[2].Text))
	for i, c := range chunks {
		assert.Equal(t, i, c.Metadata.ChunkIndex)
		assert.Equal(t, server.URL, c.Metadata.Title, "title falls back to URL")
	}
}

func TestProcess_PlainTextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("line one\n\nline <b>two</b>"))
	}))
	defer server.Close()

	chunks, err := New(nil).Process(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "line one line <b>two</b>", chunks[0].Text)
}

func TestProcess_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>Blank</title></head><body><script>x()</script></body></html>"))
	}))
	defer server.Close()

	chunks, err := New(nil).Process(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestProcess_Errors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "missing", http.StatusNotFound)
		}))
		defer server.Close()

		chunks, err := New(nil).Process(context.Background(), server.URL)
		assert.Nil(t, chunks)

		var pe *domain.ProcessingError
		require.ErrorAs(t, err, &pe)
		assert.Contains(t, err.Error(), "status 404")
	})

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		addr := server.URL
		server.Close()

		_, err := New(nil).Process(context.Background(), addr)
		var pe *domain.ProcessingError
		assert.ErrorAs(t, err, &pe)
	})
}

func TestProcess_MaxBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("0123456789abcdef"))
	}))
	defer server.Close()

	chunks, err := New(nil, WithMaxBytes(10)).Process(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "0123456789", chunks[0].Text)
}
