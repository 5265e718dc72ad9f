// Package render produces the shareable image card for a confession.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Card geometry and palette.
const (
	cardSize     = 1080
	bannerHeight = 120
	marginX      = 50
	lineSpacing  = 8
)

var (
	bgColor     = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	textColor   = color.RGBA{R: 240, G: 240, B: 240, A: 255}
	bannerColor = color.RGBA{R: 34, G: 197, B: 94, A: 255}
	titleColor  = color.RGBA{A: 255}
)

// Renderer writes confession cards as PNG files under AssetsDir.
type Renderer struct {
	AssetsDir string
}

// New returns a Renderer writing into assetsDir.
func New(assetsDir string) *Renderer {
	return &Renderer{AssetsDir: assetsDir}
}

// Render draws the confession content onto a square card and writes it to
// <AssetsDir>/<filename>. It returns the written path.
func (r *Renderer) Render(content, filename string) (string, error) {
	if err := os.MkdirAll(r.AssetsDir, 0o755); err != nil {
		return "", fmt.Errorf("render: create assets dir: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, cardSize, cardSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(bgColor), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, cardSize, bannerHeight), image.NewUniform(bannerColor), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawText(img, face, titleColor, marginX, bannerHeight/2, "WhisperVault")

	y := bannerHeight + 40
	lineHeight := face.Metrics().Height.Ceil() + lineSpacing
	maxChars := (cardSize - 2*marginX) / face.Advance

	for _, paragraph := range strings.Split(content, "\n") {
		lines := wrap(paragraph, maxChars)
		if len(lines) == 0 {
			y += lineHeight / 2
			continue
		}
		for _, line := range lines {
			drawText(img, face, textColor, marginX, y, line)
			y += lineHeight
			if y > cardSize-40 {
				break
			}
		}
		if y > cardSize-40 {
			break
		}
		y += lineSpacing
	}

	outPath := filepath.Join(r.AssetsDir, filename)
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("render: create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("render: encode png: %w", err)
	}
	return outPath, nil
}

func drawText(dst draw.Image, face *basicfont.Face, col color.Color, x, y int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// wrap breaks s into lines of at most width characters on word boundaries.
// Words longer than width are hard-split.
func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var cur strings.Builder
	for _, w := range words {
		for len(w) > width {
			if cur.Len() > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			lines = append(lines, w[:width])
			w = w[width:]
		}
		switch {
		case cur.Len() == 0:
			cur.WriteString(w)
		case cur.Len()+1+len(w) <= width:
			cur.WriteByte(' ')
			cur.WriteString(w)
		default:
			lines = append(lines, cur.String())
			cur.Reset()
			cur.WriteString(w)
		}
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
