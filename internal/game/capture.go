package game

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
	"gocv.io/x/gocv"
)

const (
	BackendRobotgo    = "robotgo"
	BackendScreenshot = "screenshot"
)

// Capturer grabs a screen rectangle as a BGR Mat.
type Capturer interface {
	Capture(rect image.Rectangle) (gocv.Mat, error)
}

func NewCapturer(backend string) (Capturer, error) {
	switch backend {
	case BackendRobotgo, "":
		return robotgoCapturer{}, nil
	case BackendScreenshot:
		return screenshotCapturer{}, nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", backend)
	}
}

type robotgoCapturer struct{}

func (robotgoCapturer) Capture(rect image.Rectangle) (gocv.Mat, error) {
	bitmap := robotgo.CaptureScreen(rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	if bitmap == nil {
		return gocv.Mat{}, fmt.Errorf("robotgo capture of %v failed", rect)
	}
	defer robotgo.FreeBitmap(bitmap)

	img := robotgo.ToImage(bitmap)
	return gocv.ImageToMatRGB(img)
}

type screenshotCapturer struct{}

func (screenshotCapturer) Capture(rect image.Rectangle) (gocv.Mat, error) {
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("screenshot capture of %v failed: %w", rect, err)
	}
	return gocv.ImageToMatRGB(img)
}
