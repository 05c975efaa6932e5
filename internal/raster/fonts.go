package raster

import (
	"fmt"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Fonts holds the parsed faces every frame is drawn with. The Go fonts are
// compiled into the binary, so text rendering never depends on the host.
type Fonts struct {
	Regular *opentype.Font
	Bold    *opentype.Font
}

// LoadFonts parses the embedded Go Regular and Go Bold fonts.
func LoadFonts() (*Fonts, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse go regular: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse go bold: %w", err)
	}
	return &Fonts{Regular: regular, Bold: bold}, nil
}

var loadDefaultFonts = sync.OnceValues(LoadFonts)

// DefaultFonts returns a process-wide Fonts, parsed on first use.
func DefaultFonts() (*Fonts, error) {
	return loadDefaultFonts()
}
