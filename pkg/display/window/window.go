// Package window shows the camera preview in an OpenCV highgui window with
// the verdict in a black bar across the top.
//
// highgui must run on the main OS thread. Callers lock it with
// runtime.LockOSThread in main and call Run from there; Run also pumps the
// display.Loop, so the window is the UI execution context.
package window

import (
	"context"
	"image"
	"image/color"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/teslashibe/clockcam/pkg/camera"
	"github.com/teslashibe/clockcam/pkg/display"
)

const (
	barHeight = 60
	font      = gocv.FontHersheySimplex
	fontScale = 1.0
	thickness = 2

	keyEsc = 27
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
	grey  = color.RGBA{60, 60, 60, 255}
)

// Window is a display.Sink and display.Notifier backed by a highgui window.
// All methods must be called on the goroutine running Run.
type Window struct {
	title   string
	preview *camera.Preview
	loop    *display.Loop
	logger  *slog.Logger

	text   string
	notice string

	win    *gocv.Window
	canvas gocv.Mat
}

// New creates the window description. The OS window opens in Run.
func New(title string, preview *camera.Preview, loop *display.Loop, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}
	return &Window{
		title:   title,
		preview: preview,
		loop:    loop,
		logger:  logger,
	}
}

// SetVerdictText replaces the overlay label.
func (w *Window) SetVerdictText(text string) {
	w.text = text
}

// ShowNotice displays msg until the user presses a key.
func (w *Window) ShowNotice(msg string) {
	w.notice = msg
}

// Run renders until ctx is done or the user quits with q or Esc.
// Both end with a nil error.
func (w *Window) Run(ctx context.Context) error {
	w.win = gocv.NewWindow(w.title)
	defer w.win.Close()

	w.canvas = gocv.NewMat()
	defer w.canvas.Close()

	w.logger.Info("preview window opened", "title", w.title)

	for {
		select {
		case <-ctx.Done():
			w.loop.Drain()
			return nil
		default:
		}

		w.loop.Drain()
		if err := w.render(); err != nil {
			w.logger.Debug("overlay draw failed", "error", err)
		}
		w.win.IMShow(w.canvas)

		key := w.win.WaitKey(15)
		if key < 0 {
			continue
		}
		if w.notice != "" {
			w.notice = ""
			continue
		}
		if key == 'q' || key == keyEsc {
			w.logger.Info("preview window closed by user")
			return nil
		}
	}
}

func (w *Window) render() error {
	f, ok := w.preview.Latest()
	if ok {
		src, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC4, f.Data[:f.Stride*f.Height])
		if err == nil {
			err = gocv.CvtColor(src, &w.canvas, gocv.ColorBGRAToBGR)
			src.Close()
		}
		if err != nil {
			w.logger.Debug("preview frame skipped", "error", err)
			ok = false
		}
	}
	if !ok {
		w.blank(480, 640)
	}

	width := w.canvas.Cols()

	if err := gocv.Rectangle(&w.canvas, image.Rect(0, 0, width, barHeight), black, -1); err != nil {
		return err
	}
	if w.text != "" {
		if err := w.centered(w.text, barHeight/2, white); err != nil {
			return err
		}
	}

	if w.notice == "" {
		return nil
	}
	top := w.canvas.Rows()/2 - 50
	if err := gocv.Rectangle(&w.canvas, image.Rect(20, top, width-20, top+100), grey, -1); err != nil {
		return err
	}
	if err := w.centered(w.notice, top+40, white); err != nil {
		return err
	}
	return w.centered("Press any key", top+80, white)
}

func (w *Window) blank(rows, cols int) {
	if w.canvas.Rows() != rows || w.canvas.Cols() != cols || w.canvas.Type() != gocv.MatTypeCV8UC3 {
		w.canvas.Close()
		w.canvas = gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	}
	w.canvas.SetTo(gocv.NewScalar(0, 0, 0, 0))
}

// centered draws text horizontally centered with its midline at y.
func (w *Window) centered(text string, y int, c color.RGBA) error {
	size := gocv.GetTextSize(text, font, fontScale, thickness)
	x := (w.canvas.Cols() - size.X) / 2
	if x < 4 {
		x = 4
	}
	return gocv.PutText(&w.canvas, text, image.Pt(x, y+size.Y/2), font, fontScale, c, thickness)
}

var (
	_ display.Sink     = (*Window)(nil)
	_ display.Notifier = (*Window)(nil)
)
