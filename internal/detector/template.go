package detector

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

type TemplateDetectParam struct {
	Img      gocv.Mat
	Template gocv.Mat
	// Region limits the search to part of Img. The zero rectangle searches all of it.
	Region image.Rectangle
}

type TemplateDetector interface {
	// Detect returns the best normalized-correlation hit of the template in Img
	// coordinates, and false when the template cannot fit inside the search region.
	Detect(param *TemplateDetectParam) (image.Rectangle, float64, bool)
}

type TemplateDetectorImpl struct{}

func NewTemplateDetector() TemplateDetector {
	return &TemplateDetectorImpl{}
}

func NewTemplateDetectParam(img, template gocv.Mat, region image.Rectangle) *TemplateDetectParam {
	return &TemplateDetectParam{
		Img:      img,
		Template: template,
		Region:   region,
	}
}

func (d *TemplateDetectorImpl) Detect(param *TemplateDetectParam) (image.Rectangle, float64, bool) {
	img := param.Img
	template := param.Template
	if img.Empty() || template.Empty() {
		return image.Rectangle{}, 0, false
	}

	bounds := image.Rect(0, 0, img.Cols(), img.Rows())
	region := bounds
	if !param.Region.Empty() {
		region = param.Region.Intersect(bounds)
	}
	if region.Dx() < template.Cols() || region.Dy() < template.Rows() {
		return image.Rectangle{}, 0, false
	}

	roi := img.Region(region)
	defer roi.Close()

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(roi, template, &result, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)

	rect := image.Rect(
		maxLoc.X,
		maxLoc.Y,
		maxLoc.X+template.Cols(),
		maxLoc.Y+template.Rows(),
	).Add(region.Min)
	return rect, float64(maxVal), true
}

// LoadTemplate reads a color template image. The caller owns the returned Mat.
func LoadTemplate(path string) (gocv.Mat, error) {
	template := gocv.IMRead(path, gocv.IMReadColor)
	if template.Empty() {
		template.Close()
		return gocv.Mat{}, fmt.Errorf("failed to load template image %s", path)
	}
	return template, nil
}
