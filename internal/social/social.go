// Package social draws the Open Graph preview image of a post: a fixed-size
// PNG with the site name, the post title and subtitle and a byline.
package social

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/alnah/go-mdblog"
)

// Card dimensions recommended for og:image and twitter:image.
const (
	Width  = 1200
	Height = 630
)

const (
	dpi     = 96
	margin  = 80
	barSize = 16

	siteSize     = 28
	titleSize    = 56
	subtitleSize = 30
	bylineSize   = 24

	maxTitleLines    = 3
	maxSubtitleLines = 2

	ellipsis = "…"
)

// ErrEmptyTitle is returned for a card without a title.
var ErrEmptyTitle = errors.New("social card requires a title")

// Theme holds the card colors.
type Theme struct {
	Background color.Color
	Foreground color.Color
	Muted      color.Color
	Accent     color.Color
}

// Card themes matching the site palettes.
var (
	LightTheme = Theme{
		Background: color.RGBA{0xF7, 0xF7, 0xF5, 0xFF},
		Foreground: color.RGBA{0x0F, 0x51, 0x32, 0xFF},
		Muted:      color.RGBA{0x3F, 0x3F, 0x46, 0xFF},
		Accent:     color.RGBA{0x10, 0xB9, 0x81, 0xFF},
	}
	DarkTheme = Theme{
		Background: color.RGBA{0x0B, 0x0F, 0x0D, 0xFF},
		Foreground: color.RGBA{0x6E, 0xE7, 0xB7, 0xFF},
		Muted:      color.RGBA{0xD4, 0xD4, 0xD8, 0xFF},
		Accent:     color.RGBA{0x10, 0xB9, 0x81, 0xFF},
	}
)

// ThemeFor returns the card theme of a site theme.
func ThemeFor(t mdblog.Theme) Theme {
	if t.IsDark() {
		return DarkTheme
	}
	return LightTheme
}

// Card is the text drawn on a preview image.
type Card struct {
	Site     string
	Title    string
	Subtitle string
	Byline   string
}

// CardFromPost builds the card of a post: "By <author>" followed by the
// month and year when the post is dated.
func CardFromPost(p *mdblog.Post, site string) Card {
	byline := "By " + p.Author
	if date, err := mdblog.FormatDate(p.Date, "post"); err == nil && date != "" {
		byline += " · " + date
	}
	return Card{Site: site, Title: p.Title, Subtitle: p.Subtitle, Byline: byline}
}

// Renderer draws cards. Parsed fonts are shared; faces are created per call,
// so Render is safe for concurrent use.
type Renderer struct {
	regular *truetype.Font
	bold    *truetype.Font
	theme   Theme
}

// NewRenderer parses the embedded Go fonts.
func NewRenderer(theme Theme) (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing bold font: %w", err)
	}
	return &Renderer{regular: regular, bold: bold, theme: theme}, nil
}

// Render draws c on a Width x Height image.
func (r *Renderer) Render(c Card) (*image.RGBA, error) {
	if strings.TrimSpace(c.Title) == "" {
		return nil, ErrEmptyTitle
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.theme.Background), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, barSize, Height), image.NewUniform(r.theme.Accent), image.Point{}, draw.Src)

	dc := freetype.NewContext()
	dc.SetDPI(dpi)
	dc.SetClip(img.Bounds())
	dc.SetDst(img)
	dc.SetHinting(font.HintingFull)

	maxWidth := Width - 2*margin
	y := margin

	if c.Site != "" {
		y += r.drawLines(dc, r.bold, siteSize, r.theme.Accent, []string{c.Site}, y) + px(siteSize)
	}

	titleLines := wrap(r.face(r.bold, titleSize), c.Title, maxWidth, maxTitleLines)
	y += r.drawLines(dc, r.bold, titleSize, r.theme.Foreground, titleLines, y)

	if c.Subtitle != "" {
		y += px(subtitleSize) / 2
		subLines := wrap(r.face(r.regular, subtitleSize), c.Subtitle, maxWidth, maxSubtitleLines)
		r.drawLines(dc, r.regular, subtitleSize, r.theme.Muted, subLines, y)
	}

	if c.Byline != "" {
		bylineY := Height - margin - lineHeight(bylineSize)
		line := wrap(r.face(r.regular, bylineSize), c.Byline, maxWidth, 1)
		r.drawLines(dc, r.regular, bylineSize, r.theme.Muted, line, bylineY)
	}

	return img, nil
}

// WritePNG renders c and encodes it as PNG.
func (r *Renderer) WritePNG(w io.Writer, c Card) error {
	img, err := r.Render(c)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// drawLines draws lines starting at top y and returns the height used.
func (r *Renderer) drawLines(dc *freetype.Context, f *truetype.Font, size float64, col color.Color, lines []string, top int) int {
	dc.SetFont(f)
	dc.SetFontSize(size)
	dc.SetSrc(image.NewUniform(col))

	lh := lineHeight(size)
	for i, ln := range lines {
		baseline := top + i*lh + px(size)
		_, _ = dc.DrawString(ln, freetype.Pt(margin, baseline))
	}
	return len(lines) * lh
}

func (r *Renderer) face(f *truetype.Font, size float64) font.Face {
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: dpi, Hinting: font.HintingFull})
}

// px converts a point size to pixels at the card DPI.
func px(size float64) int {
	return int(size * dpi / 72)
}

func lineHeight(size float64) int {
	return px(size) * 5 / 4
}

func measure(face font.Face, s string) int {
	d := font.Drawer{Face: face}
	return d.MeasureString(s).Ceil()
}

// wrap splits text into at most maxLines lines no wider than maxWidth.
// Overflowing text is cut at a word boundary and ends with an ellipsis.
// A single word wider than maxWidth is kept on its own line.
func wrap(face font.Face, text string, maxWidth, maxLines int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := ""
	for _, w := range words {
		candidate := strings.TrimSpace(line + " " + w)
		if line == "" || measure(face, candidate) <= maxWidth {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = w
		if len(lines) == maxLines {
			return truncate(face, lines, maxWidth)
		}
	}
	if line != "" {
		if len(lines) == maxLines {
			return truncate(face, lines, maxWidth)
		}
		lines = append(lines, line)
	}
	return lines
}

// truncate marks the last line as cut, dropping words until the ellipsis fits.
func truncate(face font.Face, lines []string, maxWidth int) []string {
	last := strings.Fields(lines[len(lines)-1])
	for len(last) > 1 && measure(face, strings.Join(last, " ")+ellipsis) > maxWidth {
		last = last[:len(last)-1]
	}
	lines[len(lines)-1] = strings.Join(last, " ") + ellipsis
	return lines
}
