package controller

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"vpdetect/internal/models"
	"vpdetect/internal/source"
	"vpdetect/processing/overlay"
)

type State int

const (
	Idle State = iota
	FileSelected
	Detecting
	Resulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case FileSelected:
		return "File selected"
	case Detecting:
		return "Detecting..."
	case Resulted:
		return "Done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const (
	NoFileSelectedText = "No file selected"
	NoDetectorText     = "No detection endpoint configured"
)

var (
	ErrNoFileSelected = errors.New("no file selected")
	ErrNoDetector     = errors.New("no detector configured")
)

type Detector interface {
	Detect(ctx context.Context, img source.SelectedImage) models.Result
}

// ImageStore hands out display handles and decodes the pixels behind them.
type ImageStore interface {
	source.URLStore
	Decode(url string) (image.Image, error)
}

// Snapshot is what the view needs to draw one frame of UI.
type Snapshot struct {
	State     State
	FileName  string
	Result    models.Result
	ErrorText string
	// Frame is the rendered image, nil until the selected file is decoded.
	Frame   *image.RGBA
	Loading bool
}

// Controller owns the selection, the latest result and the render target.
//
// All methods must be called from the UI goroutine. Network requests and
// image decodes run on their own goroutines and re-enter through dispatch,
// so state is only ever touched from one goroutine and needs no locking.
type Controller struct {
	ctx      context.Context
	dispatch func(func())

	store    ImageStore
	selector *source.Selector
	detector Detector
	renderer *overlay.Renderer
	target   *overlay.Target

	notFoundText string

	state   State
	result  models.Result
	errText string
	image   image.Image
	loading bool

	// fileGen stamps decodes, reqSeq stamps requests. A completion is applied
	// only while its stamp is still the latest.
	fileGen uint64
	reqSeq  uint64

	observers []func(Snapshot)
}

func New(ctx context.Context, det Detector, store ImageStore, renderer *overlay.Renderer, dispatch func(func())) *Controller {
	return &Controller{
		ctx:          ctx,
		dispatch:     dispatch,
		store:        store,
		selector:     source.NewSelector(store),
		detector:     det,
		renderer:     renderer,
		target:       overlay.NewTarget(),
		notFoundText: "No vanishing point found.",
		state:        Idle,
		result:       models.Empty{},
	}
}

func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.observers = append(c.observers, fn)
}

func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		State:     c.state,
		Result:    c.result,
		ErrorText: c.errText,
		Frame:     c.target.Image(),
		Loading:   c.loading,
	}
	if img, ok := c.selector.Current(); ok {
		snap.FileName = img.File.Name
	}
	return snap
}

func (c *Controller) SetDetector(det Detector) {
	c.detector = det
}

func (c *Controller) SetNotFoundText(text string) {
	c.notFoundText = text
}

// SetStyle swaps the renderer style and redraws the current frame.
func (c *Controller) SetStyle(style overlay.Style) {
	c.renderer = overlay.NewRenderer(style)
	c.redraw()
	c.notify()
}

// SelectFile replaces the current image. Any previous result, error text,
// in-flight request and pending decode is discarded.
func (c *Controller) SelectFile(f source.File) {
	img := c.selector.Select(f)

	c.fileGen++
	c.reqSeq++
	c.state = FileSelected
	c.result = models.Empty{}
	c.errText = ""
	c.image = nil
	c.loading = true
	c.target.Reset()

	gen := c.fileGen
	store := c.store
	go func() {
		decoded, err := store.Decode(img.DisplayURL)
		c.dispatch(func() { c.imageLoaded(gen, decoded, err) })
	}()

	slog.Debug("file selected", "file", f.Name, "bytes", len(f.Data), "url", img.DisplayURL)
	c.notify()
}

// Upload submits the current image. With nothing selected it only sets the
// error text and returns ErrNoFileSelected.
func (c *Controller) Upload() error {
	img, ok := c.selector.Current()
	if !ok {
		c.errText = NoFileSelectedText
		c.notify()
		return ErrNoFileSelected
	}
	if c.detector == nil {
		c.errText = NoDetectorText
		c.notify()
		return ErrNoDetector
	}

	c.reqSeq++
	seq := c.reqSeq
	c.state = Detecting
	c.errText = ""

	det := c.detector
	ctx := c.ctx
	go func() {
		res := detectSafely(ctx, det, img)
		c.dispatch(func() { c.settle(seq, res) })
	}()

	slog.Debug("upload started", "file", img.File.Name, "seq", seq)
	c.notify()
	return nil
}

// Close releases the display handle. Completions still in flight are ignored.
func (c *Controller) Close() {
	c.selector.Release()
	c.fileGen++
	c.reqSeq++
}

func (c *Controller) settle(seq uint64, res models.Result) {
	if seq != c.reqSeq {
		slog.Debug("dropping superseded result", "seq", seq, "latest", c.reqSeq)
		return
	}

	c.state = Resulted
	c.result = res

	switch v := res.(type) {
	case models.TransportError:
		c.errText = v.Message
	case models.NotFound:
		c.errText = c.notFoundText
	default:
		c.errText = ""
	}

	c.redraw()
	c.notify()
}

func (c *Controller) imageLoaded(gen uint64, img image.Image, err error) {
	if gen != c.fileGen {
		return
	}
	c.loading = false

	if err != nil {
		slog.Warn("image decode failed", "error", err)
		c.errText = fmt.Sprintf("failed to load image: %v", err)
		c.notify()
		return
	}

	c.image = img
	c.redraw()
	c.notify()
}

// redraw renders the current result once the image is decoded. Before that
// it does nothing; imageLoaded calls it again.
func (c *Controller) redraw() {
	if c.image == nil {
		return
	}
	c.renderer.Render(c.target, c.image, c.result)
}

func (c *Controller) notify() {
	snap := c.Snapshot()
	for _, fn := range c.observers {
		fn(snap)
	}
}

// detectSafely turns a panicking detector into a TransportError.
func detectSafely(ctx context.Context, det Detector, img source.SelectedImage) (res models.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = models.TransportError{Message: fmt.Sprintf("detector failed: %v", r)}
		}
	}()

	res = det.Detect(ctx, img)
	if res == nil {
		res = models.TransportError{Message: "detector returned no result"}
	}
	return res
}
