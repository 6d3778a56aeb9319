package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Extensions accepted by the file picker.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// File is a raw image blob picked by the user.
type File struct {
	Name string
	Data []byte
}

// SelectedImage is the current selection together with its display handle.
type SelectedImage struct {
	File       File
	DisplayURL string
}

// Selector owns the current selection. Every new selection revokes the
// previous handle, so at most one handle is live per selector.
type Selector struct {
	urls    URLStore
	current *SelectedImage
}

func NewSelector(urls URLStore) *Selector {
	return &Selector{urls: urls}
}

// Select installs f as the current image and returns it. The handle is
// usable immediately; decoding its pixels is up to the caller.
func (s *Selector) Select(f File) SelectedImage {
	next := SelectedImage{
		File:       f,
		DisplayURL: s.urls.Create(f),
	}

	if s.current != nil {
		s.urls.Revoke(s.current.DisplayURL)
	}
	s.current = &next

	return next
}

func (s *Selector) Current() (SelectedImage, bool) {
	if s.current == nil {
		return SelectedImage{}, false
	}
	return *s.current, true
}

// Release revokes the current handle and forgets the selection.
func (s *Selector) Release() {
	if s.current == nil {
		return
	}
	s.urls.Revoke(s.current.DisplayURL)
	s.current = nil
}

// ReadFile drains r into a File named after path.
func ReadFile(path string, r io.Reader) (File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// IsImageFile checks if a file has an image extension
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, imgExt := range ImageExtensions {
		if ext == imgExt {
			return true
		}
	}
	return false
}
