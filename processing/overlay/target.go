package overlay

import "image"

// Target is the drawing surface bound to the displayed image. Its pixel grid
// is the coordinate system the detection service answers in.
type Target struct {
	img *image.RGBA
}

func NewTarget() *Target {
	return &Target{}
}

// Resize makes the surface exactly width x height. The backing buffer is
// reused when the size does not change.
func (t *Target) Resize(width, height int) {
	if t.img != nil && t.img.Rect.Dx() == width && t.img.Rect.Dy() == height {
		return
	}
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Size returns the surface size, zero before the first Resize.
func (t *Target) Size() image.Point {
	if t.img == nil {
		return image.Point{}
	}
	return t.img.Rect.Size()
}

// Image exposes the backing buffer; nil before the first Resize.
func (t *Target) Image() *image.RGBA {
	return t.img
}

// Reset drops the surface so nothing stale is shown for the next image.
func (t *Target) Reset() {
	t.img = nil
}
