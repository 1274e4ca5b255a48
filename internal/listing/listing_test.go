package listing

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, body []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	require.NoError(t, err)
	return doc
}

func links(doc *goquery.Document) map[string]string {
	out := make(map[string]string)
	doc.Find("ul li a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		out[s.Text()] = href
	})
	return out
}

func TestRenderOneLinkPerEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("b"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	// not listed: grandchildren
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "deep.txt"), []byte("d"), 0o644))

	body, err := Render(dir, "/docs/")
	require.NoError(t, err)

	doc := parse(t, body)
	assert.Equal(t, 3, doc.Find("ul li a").Length())
	assert.Equal(t, map[string]string{
		"a.txt": "/docs/a.txt",
		"b.pdf": "/docs/b.pdf",
		"sub/":  "/docs/sub/",
	}, links(doc))

	assert.Equal(t, "Index of /docs/", doc.Find("title").Text())
	assert.Equal(t, "Index of /docs/", doc.Find("h1").Text())
	charset, ok := doc.Find("meta").Attr("charset")
	assert.True(t, ok)
	assert.Equal(t, "utf-8", charset)
}

func TestRenderWithoutTrailingSlash(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))

	body, err := Render(dir, "/docs")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.txt": "/docs/a.txt"}, links(parse(t, body)))
}

func TestRenderEscapesNames(t *testing.T) {
	dir := t.TempDir()
	names := []string{"my file.txt", "<b>.html", "q?x#y.txt", "测试.txt"}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}

	body, err := Render(dir, "/文档/")
	require.NoError(t, err)

	// Test: Raw markup never reaches the page
	assert.NotContains(t, string(body), "<b>.html")

	got := links(parse(t, body))
	assert.Equal(t, "/%E6%96%87%E6%A1%A3/my%20file.txt", got["my file.txt"])
	assert.Equal(t, "/%E6%96%87%E6%A1%A3/%3Cb%3E.html", got["<b>.html"])
	assert.Equal(t, "/%E6%96%87%E6%A1%A3/q%3Fx%23y.txt", got["q?x#y.txt"])
	assert.Equal(t, "/%E6%96%87%E6%A1%A3/%E6%B5%8B%E8%AF%95.txt", got["测试.txt"])
}

func TestRenderEmptyDirectory(t *testing.T) {
	body, err := Render(t.TempDir(), "/empty/")
	require.NoError(t, err)

	doc := parse(t, body)
	assert.Equal(t, 0, doc.Find("ul li").Length())
	assert.Equal(t, 1, doc.Find("ul").Length())
}

func TestEntriesDeterministic(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"c", "a", "b"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}

	first, err := Entries(dir, "/")
	require.NoError(t, err)
	second, err := Entries(dir, "/")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	names := make([]string, len(first))
	for i, e := range first {
		names[i] = e.Name
	}
	assert.True(t, sort.StringsAreSorted(names))
}

func TestRenderMissingDirectory(t *testing.T) {
	_, err := Render(filepath.Join(t.TempDir(), "gone"), "/gone/")
	assert.Error(t, err)
}
