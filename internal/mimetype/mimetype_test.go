package mimetype

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByPath(t *testing.T) {
	assert.True(t, strings.HasPrefix(ByPath("/srv/root/docs/a.txt"), "text/plain"))
	assert.True(t, strings.HasPrefix(ByPath("index.html"), "text/html"))
	assert.True(t, strings.HasPrefix(ByPath("INDEX.HTML"), "text/html"))
	assert.Equal(t, "image/png", ByPath("logo.png"))

	// Test: Unknown and missing extensions fall back to the default
	assert.Equal(t, Default, ByPath("Makefile"))
	assert.Equal(t, Default, ByPath("blob.definitely-not-a-type"))
}

func TestHasExtension(t *testing.T) {
	downloads := []string{".doc", ".docx", ".pdf", "xlsx", ".ZIP"}

	assert.True(t, HasExtension("report.pdf", downloads))
	assert.True(t, HasExtension("REPORT.PDF", downloads))
	assert.True(t, HasExtension("sheet.xlsx", downloads))
	assert.True(t, HasExtension("bundle.zip", downloads))

	assert.False(t, HasExtension("notes.txt", downloads))
	assert.False(t, HasExtension("pdf", downloads))
	assert.False(t, HasExtension("archive.zip.txt", downloads))
	assert.False(t, HasExtension("report.pdf", nil))
}
