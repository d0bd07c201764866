package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// HSVRange is an inclusive OpenCV HSV band (H in [0,179]).
type HSVRange struct {
	Lower gocv.Scalar
	Upper gocv.Scalar
}

// RedBands covers enemy markers on the tactical map. Red wraps around in HSV,
// so it needs two ranges.
var RedBands = []HSVRange{
	{Lower: gocv.NewScalar(0, 200, 200, 0), Upper: gocv.NewScalar(9, 255, 255, 0)},
	{Lower: gocv.NewScalar(170, 200, 200, 0), Upper: gocv.NewScalar(179, 255, 255, 0)},
}

type ColorDetectParam struct {
	Img   gocv.Mat
	Bands []HSVRange
}

type ColorDetector interface {
	// Detect lists the pixels of Img falling in any band, row by row.
	Detect(param ColorDetectParam) ([]image.Point, bool)
}

type ColorDetectorImpl struct {
}

func NewColorDetector() ColorDetector {
	return &ColorDetectorImpl{}
}

func NewColorDetectParam(img gocv.Mat, bands ...HSVRange) ColorDetectParam {
	return ColorDetectParam{
		Img:   img,
		Bands: bands,
	}
}

func (d *ColorDetectorImpl) Detect(param ColorDetectParam) ([]image.Point, bool) {
	img := param.Img
	if img.Empty() || len(param.Bands) == 0 {
		return nil, false
	}

	mask := ColorMask(img, param.Bands)
	defer mask.Close()

	cols := mask.Cols()
	data, err := mask.DataPtrUint8()
	if err != nil {
		return nil, false
	}

	var points []image.Point
	for i, v := range data {
		if v != 0 {
			points = append(points, image.Pt(i%cols, i/cols))
		}
	}
	return points, len(points) > 0
}

// ColorMask returns the union of the band masks of a BGR image. The caller
// owns the returned Mat.
func ColorMask(img gocv.Mat, bands []HSVRange) gocv.Mat {
	imgHsv := gocv.NewMat()
	defer imgHsv.Close()
	gocv.CvtColor(img, &imgHsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	band := gocv.NewMat()
	defer band.Close()
	for i, r := range bands {
		if i == 0 {
			gocv.InRangeWithScalar(imgHsv, r.Lower, r.Upper, &mask)
			continue
		}
		gocv.InRangeWithScalar(imgHsv, r.Lower, r.Upper, &band)
		gocv.BitwiseOr(mask, band, &mask)
	}
	return mask
}
