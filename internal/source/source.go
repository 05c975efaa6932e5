// Package source loads the still images shown inside demo_screens mockups:
// PNG/JPEG files, directories of them, and rasterized PDF pages.
package source

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Source is a paged collection of images.
type Source interface {
	PageCount() int
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks the Source implementation from the path: .pdf files go through
// MuPDF, everything else is treated as an image file or directory.
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewPDFSource(path)
	}
	return NewImageSource(path)
}

// PDFSource rasterizes pages of a PDF document.
type PDFSource struct {
	doc  *fitz.Document
	path string
}

func NewPDFSource(path string) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &PDFSource{doc: doc, path: path}, nil
}

func (s *PDFSource) PageCount() int {
	return s.doc.NumPage()
}

func (s *PDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= s.doc.NumPage() {
		return nil, fmt.Errorf("pdf %s: page %d out of range (1-%d)", s.path, index+1, s.doc.NumPage())
	}
	img, err := s.doc.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("pdf %s: render page %d: %w", s.path, index+1, err)
	}
	return img, nil
}

func (s *PDFSource) Close() error {
	return s.doc.Close()
}
