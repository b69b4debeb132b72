package render

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jung-kurt/gofpdf"
)

//go:embed fonts/*.ttf
var embeddedFonts embed.FS

const fontFamily = "Body"

// FontSet holds the TrueType faces used for every piece of text in a
// document. Text is written as UTF-8, so any rune the faces cover renders.
type FontSet struct {
	Regular []byte
	Bold    []byte
	Italic  []byte
}

// DefaultFonts returns the embedded DejaVu Sans Condensed faces, which
// cover Latin, Greek, Cyrillic and the common currency signs.
func DefaultFonts() FontSet {
	return defaultFonts()
}

var defaultFonts = sync.OnceValue(func() FontSet {
	read := func(name string) []byte {
		b, err := embeddedFonts.ReadFile("fonts/" + name)
		if err != nil {
			panic(fmt.Sprintf("render: embedded font %s: %v", name, err))
		}
		return b
	}
	return FontSet{
		Regular: read("DejaVuSansCondensed.ttf"),
		Bold:    read("DejaVuSansCondensed-Bold.ttf"),
		Italic:  read("DejaVuSansCondensed-Oblique.ttf"),
	}
})

// LoadFonts reads TrueType files from disk. With no regular face the
// embedded set is returned; a missing bold or italic face falls back to
// the regular one. Every face is parsed once so a bad file fails here
// rather than on the first render.
func LoadFonts(regular, bold, italic string) (FontSet, error) {
	if strings.TrimSpace(regular) == "" {
		return DefaultFonts(), nil
	}
	var set FontSet
	var err error
	if set.Regular, err = os.ReadFile(regular); err != nil {
		return FontSet{}, fmt.Errorf("read regular font: %w", err)
	}
	set.Bold, set.Italic = set.Regular, set.Regular
	if strings.TrimSpace(bold) != "" {
		if set.Bold, err = os.ReadFile(bold); err != nil {
			return FontSet{}, fmt.Errorf("read bold font: %w", err)
		}
	}
	if strings.TrimSpace(italic) != "" {
		if set.Italic, err = os.ReadFile(italic); err != nil {
			return FontSet{}, fmt.Errorf("read italic font: %w", err)
		}
	}
	if err := set.check(); err != nil {
		return FontSet{}, err
	}
	return set, nil
}

func (s FontSet) check() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load fonts: malformed TrueType data: %v", r)
		}
	}()
	pdf := gofpdf.New("P", "mm", "A4", "")
	s.register(pdf)
	for _, style := range []string{"", "B", "I"} {
		pdf.SetFont(fontFamily, style, 10)
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("load fonts: %w", err)
		}
		if pdf.GetStringWidth("0") <= 0 {
			return fmt.Errorf("load fonts: style %q has no digit glyphs", style)
		}
	}
	return nil
}

// register adds the faces to pdf. The parser pads tables in place, so each
// document gets its own copy of the font bytes.
func (s FontSet) register(pdf *gofpdf.Fpdf) {
	if len(s.Regular) == 0 {
		s = DefaultFonts()
	}
	bold, italic := s.Bold, s.Italic
	if len(bold) == 0 {
		bold = s.Regular
	}
	if len(italic) == 0 {
		italic = s.Regular
	}
	pdf.AddUTF8FontFromBytes(fontFamily, "", bytes.Clone(s.Regular))
	pdf.AddUTF8FontFromBytes(fontFamily, "B", bytes.Clone(bold))
	pdf.AddUTF8FontFromBytes(fontFamily, "I", bytes.Clone(italic))
}

// printable makes s safe for the UTF-8 text writer, which only handles
// runes in the Basic Multilingual Plane.
func printable(s string) string {
	s = strings.ToValidUTF8(s, "�")
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '�'
		}
		return r
	}, s)
}
