package source

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

// countingStore records every Create and Revoke call.
type countingStore struct {
	next    int
	created []string
	revoked map[string]int
}

func newCountingStore() *countingStore {
	return &countingStore{revoked: make(map[string]int)}
}

func (c *countingStore) Create(f File) string {
	c.next++
	url := "blob:test-" + string(rune('a'+c.next))
	c.created = append(c.created, url)
	return url
}

func (c *countingStore) Revoke(url string) {
	c.revoked[url]++
}

// encodePNG builds a solid-colour PNG blob.
func encodePNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func TestSelector_SelectRevokesPrevious(t *testing.T) {
	store := newCountingStore()
	sel := NewSelector(store)

	first := sel.Select(File{Name: "a.png", Data: []byte("a")})
	if len(store.revoked) != 0 {
		t.Fatalf("first selection should not revoke anything, got %v", store.revoked)
	}

	second := sel.Select(File{Name: "b.png", Data: []byte("b")})
	if first.DisplayURL == second.DisplayURL {
		t.Fatal("each selection should get its own url")
	}
	if store.revoked[first.DisplayURL] != 1 {
		t.Errorf("first url revoked %d times, want 1", store.revoked[first.DisplayURL])
	}
	if store.revoked[second.DisplayURL] != 0 {
		t.Error("current url must stay live")
	}

	cur, ok := sel.Current()
	if !ok || cur.DisplayURL != second.DisplayURL {
		t.Errorf("Current() = %v, %v; want second selection", cur, ok)
	}

	sel.Select(File{Name: "c.png"})
	if store.revoked[first.DisplayURL] != 1 {
		t.Errorf("first url revoked again: %d", store.revoked[first.DisplayURL])
	}
	if store.revoked[second.DisplayURL] != 1 {
		t.Errorf("second url revoked %d times, want 1", store.revoked[second.DisplayURL])
	}
}

func TestSelector_Release(t *testing.T) {
	store := newCountingStore()
	sel := NewSelector(store)

	sel.Release()
	if len(store.revoked) != 0 {
		t.Fatal("release without a selection should be a no-op")
	}

	img := sel.Select(File{Name: "a.png"})
	sel.Release()
	sel.Release()

	if store.revoked[img.DisplayURL] != 1 {
		t.Errorf("url revoked %d times, want 1", store.revoked[img.DisplayURL])
	}
	if _, ok := sel.Current(); ok {
		t.Error("selection should be cleared after release")
	}
}

func TestObjectURLs_Lifecycle(t *testing.T) {
	urls := NewObjectURLs()
	sel := NewSelector(urls)

	first := sel.Select(File{Name: "a.png", Data: encodePNG(t, 4, 4, color.White)})
	if !strings.HasPrefix(first.DisplayURL, "blob:") {
		t.Errorf("unexpected url %q", first.DisplayURL)
	}

	second := sel.Select(File{Name: "b.png", Data: encodePNG(t, 4, 4, color.Black)})
	if urls.Len() != 1 {
		t.Errorf("Len() = %d, want 1 live handle", urls.Len())
	}

	if _, err := urls.Open(first.DisplayURL); !errors.Is(err, ErrUnknownURL) {
		t.Errorf("opening a revoked url should fail with ErrUnknownURL, got %v", err)
	}
	f, err := urls.Open(second.DisplayURL)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if f.Name != "b.png" {
		t.Errorf("Open returned %q, want b.png", f.Name)
	}

	// Revoking twice or revoking garbage must not panic.
	urls.Revoke(first.DisplayURL)
	urls.Revoke("blob:nope")

	sel.Release()
	if urls.Len() != 0 {
		t.Errorf("Len() = %d after release, want 0", urls.Len())
	}
}

func TestObjectURLs_Decode(t *testing.T) {
	urls := NewObjectURLs()

	pngURL := urls.Create(File{Name: "a.png", Data: encodePNG(t, 32, 24, color.RGBA{255, 0, 0, 255})})
	img, err := urls.Decode(pngURL)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 24 {
		t.Errorf("unexpected dimensions: got %dx%d, want 32x24", b.Dx(), b.Dy())
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 10, 20)), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	jpgURL := urls.Create(File{Name: "a.jpg", Data: buf.Bytes()})
	img, err = urls.Decode(jpgURL)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 20 {
		t.Errorf("unexpected dimensions: got %dx%d, want 10x20", b.Dx(), b.Dy())
	}

	badURL := urls.Create(File{Name: "bad.png", Data: []byte("not an image")})
	if _, err := urls.Decode(badURL); err == nil {
		t.Error("Decode should fail for garbage data")
	}

	if _, err := urls.Decode("blob:missing"); !errors.Is(err, ErrUnknownURL) {
		t.Errorf("Decode of unknown url should fail with ErrUnknownURL, got %v", err)
	}
}

func TestReadFile(t *testing.T) {
	f, err := ReadFile("/tmp/photos/street.jpg", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if f.Name != "street.jpg" || string(f.Data) != "bytes" {
		t.Errorf("unexpected file: %+v", f)
	}
}

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"a.png":     true,
		"b.JPG":     true,
		"c.jpeg":    true,
		"d.webp":    true,
		"e.tiff":    true,
		"notes.txt": false,
		"noext":     false,
	}
	for name, want := range tests {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}
