package ui

import (
	"context"
	"fmt"
	"log/slog"

	"vpdetect/internal/config"
	"vpdetect/internal/controller"
	"vpdetect/internal/source"
	"vpdetect/internal/ui/cwidget"
	"vpdetect/processing/detector"
	"vpdetect/processing/overlay"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const windowTitle = "Vanishing Point Detection"

type DetectApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	config *config.Config
	ctrl   *controller.Controller

	fileLabel   *widget.Label
	statusLabel *widget.Label
	resultLabel *widget.Label
	errorLabel  *widget.Label
	imageCanvas *canvas.Image
}

// CreateApp wires the controller to a detector and renderer built from cfg.
// A bad endpoint or colour is logged and the app still starts; the endpoint
// can be fixed from the sidebar.
func CreateApp(a fyne.App, cfg *config.Config) *DetectApp {
	w := a.NewWindow(windowTitle)
	w.Resize(fyne.NewSize(1200, 700))

	style, err := StyleFromConfig(cfg)
	if err != nil {
		slog.Warn("invalid overlay style, using defaults", "error", err)
	}

	det, err := NewDetector(cfg)
	if err != nil {
		slog.Warn("detector not configured", "endpoint", cfg.GetEndpoint(), "error", err)
	}

	ctrl := controller.New(context.Background(), nil, source.NewObjectURLs(), overlay.NewRenderer(style), fyne.Do)
	if det != nil {
		ctrl.SetDetector(det)
	}
	ctrl.SetNotFoundText(cfg.GetMode().NotFoundText())

	return &DetectApp{
		fyneApp: a,
		mainWin: w,
		config:  cfg,
		ctrl:    ctrl,
	}
}

// NewDetector builds the remote detector for the configured endpoint.
func NewDetector(cfg *config.Config) (*detector.RemoteDetector, error) {
	return detector.NewRemoteDetector(
		cfg.GetEndpoint(),
		detector.WithFormField(cfg.FormField),
		detector.WithTimeout(cfg.GetRequestTimeout()),
	)
}

// StyleFromConfig returns the default style with any invalid field left at
// its default, along with the first parse error.
func StyleFromConfig(cfg *config.Config) (overlay.Style, error) {
	style := overlay.DefaultStyle()
	style.MarkerRadius = cfg.GetMarkerRadius()
	style.StrokeWidth = cfg.GetStrokeWidth()

	var firstErr error
	if c, err := overlay.ParseColor(cfg.MarkerColor); err == nil {
		style.MarkerColor = c
	} else {
		firstErr = fmt.Errorf("marker_color: %w", err)
	}
	if c, err := overlay.ParseColor(cfg.LineColor); err == nil {
		style.LineColor = c
	} else if firstErr == nil {
		firstErr = fmt.Errorf("line_color: %w", err)
	}

	return style, firstErr
}

func (a *DetectApp) Run() {
	a.mainWin.SetContent(a.buildContent())

	a.mainWin.SetCloseIntercept(func() {
		if err := a.config.SaveByDefault(); err != nil {
			slog.Warn("failed to save config", "error", err)
		}
		a.ctrl.Close()
		a.mainWin.Close()
	})

	a.mainWin.CenterOnScreen()
	a.mainWin.ShowAndRun()
}

func (a *DetectApp) buildContent() fyne.CanvasObject {
	settingsLabel := widget.NewLabelWithStyle("Configuration", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	a.fileLabel = widget.NewLabel(controller.NoFileSelectedText)
	a.fileLabel.Truncation = fyne.TextTruncateEllipsis

	a.statusLabel = widget.NewLabel(controller.Idle.String())
	a.resultLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	a.errorLabel = widget.NewLabel("")
	a.errorLabel.Importance = widget.DangerImportance
	a.errorLabel.Wrapping = fyne.TextWrapWord

	a.imageCanvas = canvas.NewImageFromImage(nil)
	a.imageCanvas.FillMode = canvas.ImageFillContain
	a.imageCanvas.SetMinSize(fyne.NewSize(640, 480))

	openBtn := widget.NewButtonWithIcon("Open Image", theme.FolderOpenIcon(), a.openFile)
	uploadBtn := widget.NewButtonWithIcon("Upload & Detect", theme.UploadIcon(), func() {
		if err := a.ctrl.Upload(); err != nil {
			slog.Debug("upload rejected", "error", err)
		}
	})
	uploadBtn.Importance = widget.HighImportance

	modeSelect := widget.NewSelect(config.ModesList[:], func(s string) {
		mode := config.Mode(s)
		a.config.SetMode(mode)
		a.ctrl.SetNotFoundText(mode.NotFoundText())
	})
	modeSelect.SetSelected(string(a.config.GetMode()))

	sidebar := container.NewVBox(
		settingsLabel,
		widget.NewSeparator(),
		openBtn,
		a.fileLabel,
		widget.NewSeparator(),
		a.endpointInput(),
		widget.NewLabel("Mode:"),
		modeSelect,
		widget.NewSeparator(),
		a.styleInputs(),
		widget.NewSeparator(),
		uploadBtn,
		a.statusLabel,
		a.resultLabel,
		a.errorLabel,
	)

	a.ctrl.Subscribe(a.show)

	split := container.NewHSplit(
		container.NewPadded(container.NewVScroll(sidebar)),
		container.NewPadded(a.imageCanvas),
	)
	split.SetOffset(0.3)

	return split
}

func (a *DetectApp) endpointInput() fyne.CanvasObject {
	return cwidget.NewTextInput(
		"Endpoint",
		config.DefaultEndpoint,
		a.config.GetEndpoint(),
		config.ValidateEndpoint,
		a.applyEndpoint,
	)
}

// applyEndpoint swaps the detector. Requests already in flight finish against
// the old one and are still subject to last-write-wins.
func (a *DetectApp) applyEndpoint(endpoint string) {
	a.config.SetEndpoint(endpoint)

	det, err := NewDetector(a.config)
	if err != nil {
		slog.Warn("endpoint rejected", "endpoint", endpoint, "error", err)
		return
	}
	a.ctrl.SetDetector(det)
}

func (a *DetectApp) styleInputs() fyne.CanvasObject {
	radiusInput := cwidget.NewIntInput(
		"Marker radius",
		"Enter integer",
		a.config.GetMarkerRadius(),
		1,
		func(i int) {
			a.config.SetMarkerRadius(i)
			a.applyStyle()
		},
	)

	strokeInput := cwidget.NewIntInput(
		"Stroke width",
		"Enter integer",
		a.config.GetStrokeWidth(),
		1,
		func(i int) {
			a.config.SetStrokeWidth(i)
			a.applyStyle()
		},
	)

	return container.NewVBox(radiusInput, strokeInput)
}

func (a *DetectApp) applyStyle() {
	style, err := StyleFromConfig(a.config)
	if err != nil {
		slog.Warn("invalid overlay style", "error", err)
	}
	a.ctrl.SetStyle(style)
}

func (a *DetectApp) openFile() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		f, err := source.ReadFile(reader.URI().Name(), reader)
		if err != nil {
			dialog.ShowError(err, a.mainWin)
			return
		}
		a.ctrl.SelectFile(f)
	}, a.mainWin)

	fd.SetFilter(storage.NewExtensionFileFilter(source.ImageExtensions))
	fd.Show()
}

// show mirrors a controller snapshot into the widgets.
func (a *DetectApp) show(snap controller.Snapshot) {
	if snap.FileName != "" {
		a.fileLabel.SetText(snap.FileName)
	} else {
		a.fileLabel.SetText(controller.NoFileSelectedText)
	}

	status := snap.State.String()
	if snap.Loading {
		status = "Loading image..."
	}
	a.statusLabel.SetText(status)

	a.resultLabel.SetText(snap.Result.String())
	a.errorLabel.SetText(snap.ErrorText)

	// A nil *image.RGBA must not end up inside the interface.
	if snap.Frame != nil {
		a.imageCanvas.Image = snap.Frame
	} else {
		a.imageCanvas.Image = nil
	}
	a.imageCanvas.Refresh()
}
