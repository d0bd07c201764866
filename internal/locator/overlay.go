package locator

import (
	"image"
	"runtime/debug"
	"sync"
	"time"

	"github.com/disintegration/gift"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/Barabama/WoWsBot/internal/config"
)

// Overlay shows annotated frames in a desktop window for a bounded time.
type Overlay struct {
	mu      sync.Mutex
	log     zerolog.Logger
	display time.Duration
	scale   float64
}

func NewOverlay(cfg config.DebugConfig, log zerolog.Logger) *Overlay {
	return &Overlay{log: log, display: cfg.Display, scale: cfg.Scale}
}

// Show draws on a copy of frame and displays it. Display failures are logged
// and never reach the caller.
func (o *Overlay) Show(name string, frame gocv.Mat, draw func(dsp *gocv.Mat)) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Debug overlay failed")
		}
	}()
	if frame.Empty() {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	dsp := frame.Clone()
	defer dsp.Close()
	draw(&dsp)

	out, err := o.downscale(dsp)
	if err != nil {
		o.log.Warn().Err(err).Msg("Debug overlay skipped")
		return
	}
	defer out.Close()

	window := gocv.NewWindow(name)
	defer window.Close()
	window.IMShow(out)
	window.WaitKey(int(o.display / time.Millisecond))
}

func (o *Overlay) downscale(dsp gocv.Mat) (gocv.Mat, error) {
	if o.scale <= 0 || o.scale >= 1 {
		return dsp.Clone(), nil
	}
	img, err := dsp.ToImage()
	if err != nil {
		return gocv.Mat{}, err
	}
	w := int(float64(img.Bounds().Dx()) * o.scale)
	g := gift.New(gift.Resize(w, 0, gift.LinearResampling))
	dst := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return gocv.ImageToMatRGB(dst)
}
