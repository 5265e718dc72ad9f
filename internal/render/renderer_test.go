package render

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderWritesSquareCard(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	path, err := r.Render("I talk to my plants and they are thriving.", "card.png")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "card.png"), path)

	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	assert.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, 1080, bounds.Dx())
	assert.Equal(t, 1080, bounds.Dy())
}

func TestRenderCreatesAssetsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "assets")
	r := New(dir)

	path, err := r.Render("short", "c.png")
	assert.NoError(t, err)
	assert.FileExists(t, path)
}

func TestRenderLongContentDoesNotFail(t *testing.T) {
	r := New(t.TempDir())

	long := strings.Repeat("a long confession that needs wrapping over many lines ", 200)
	path, err := r.Render(long, "long.png")
	assert.NoError(t, err)
	assert.FileExists(t, path)
}

func TestWrap(t *testing.T) {
	lines := wrap("one two three four", 9)
	assert.Equal(t, []string{"one two", "three", "four"}, lines)

	// Oversized words are hard-split instead of overflowing the card
	lines = wrap("abcdefghij", 4)
	assert.Equal(t, []string{"abcd", "efgh", "ij"}, lines)

	assert.Nil(t, wrap("   ", 10))
}
