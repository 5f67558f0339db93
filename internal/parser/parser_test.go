package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enhanced-search/internal/models"
)

const page = `<!doctype html>
<html>
<head><title>Foxes</title><style>body { color: red }</style></head>
<body>
  <nav>Home</nav>
  <h1>About   foxes</h1>
  <p>The quick <b>brown</b> fox.</p>
  <script>var brown = 1;</script>
  <ul><li>One</li><li>Two</li></ul>
  <p>Line<br>break</p>
</body>
</html>`

func TestVisibleText(t *testing.T) {
	text, err := VisibleText(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Home\n\nAbout foxes\n\nThe quick brown fox.\n\nOne\n\nTwo\n\nLine\nbreak", text)
	assert.NotContains(t, text, "var brown")
	assert.NotContains(t, text, "color")
}

func TestMarkdownText(t *testing.T) {
	text, err := MarkdownText([]byte("# Title\n\nSome *emphasis* here.\n\n- a\n- b\n"))
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nSome emphasis here.\n\na\n\nb", text)
}

func TestExtractTextFromXML(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> world &amp; more</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second</w:t></w:r></w:p><w:tbl></w:tbl></w:body>`
	assert.Equal(t, "Hello world & more\n\nSecond", extractTextFromXML(xml, "w:t", "w:p"))
}

func TestFileSource_TextAndMarkdown(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "doc.txt")
	md := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(txt, []byte("plain text"), 0o600))
	require.NoError(t, os.WriteFile(md, []byte("## Heading\n\nBody"), 0o600))

	got, err := FileSource{Path: txt}.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)

	got, err = FileSource{Path: md}.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Heading\n\nBody", got)
}

func TestFileSource_FailuresAreFetchErrors(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.txt")}.Text(context.Background())
	assert.True(t, errors.Is(err, models.ErrFetch))

	_, err = FileSource{Path: "archive.tar"}.Text(context.Background())
	assert.True(t, errors.Is(err, models.ErrFetch))
}

func TestURLSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("just text"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	text, err := NewURLSource(srv.URL+"/page", time.Second).Text(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "The quick brown fox.")

	text, err = NewURLSource(srv.URL+"/plain", time.Second).Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "just text", text)

	_, err = NewURLSource(srv.URL+"/missing", time.Second).Text(context.Background())
	assert.True(t, errors.Is(err, models.ErrFetch))
}

func TestStaticSource(t *testing.T) {
	text, err := StaticSource("hello").Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}
