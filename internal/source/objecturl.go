package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

const urlScheme = "blob:"

// ErrUnknownURL is returned for handles that were never created or have
// been revoked.
var ErrUnknownURL = errors.New("unknown or revoked object url")

// URLStore allocates and revokes displayable URLs for selected files.
type URLStore interface {
	Create(f File) string
	Revoke(url string)
}

// ObjectURLs is an in-memory store of blob: handles. A handle stays
// resolvable until it is revoked. Safe for concurrent use; decode goroutines
// resolve handles while the UI goroutine creates and revokes them.
type ObjectURLs struct {
	mu    sync.RWMutex
	blobs map[string]File
}

func NewObjectURLs() *ObjectURLs {
	return &ObjectURLs{
		blobs: make(map[string]File),
	}
}

func (o *ObjectURLs) Create(f File) string {
	url := urlScheme + uuid.NewString()

	o.mu.Lock()
	o.blobs[url] = f
	o.mu.Unlock()

	return url
}

// Revoke releases the file behind url. Unknown or already revoked handles
// are ignored.
func (o *ObjectURLs) Revoke(url string) {
	o.mu.Lock()
	delete(o.blobs, url)
	o.mu.Unlock()
}

func (o *ObjectURLs) Open(url string) (File, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	f, ok := o.blobs[url]
	if !ok {
		return File{}, fmt.Errorf("%s: %w", url, ErrUnknownURL)
	}
	return f, nil
}

// Decode resolves url and decodes its pixels. EXIF orientation is left
// untouched so the result matches the pixel grid the detection service sees.
func (o *ObjectURLs) Decode(url string) (image.Image, error) {
	f, err := o.Open(url)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", f.Name, err)
	}
	return img, nil
}

// Len returns the number of live handles.
func (o *ObjectURLs) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.blobs)
}
