package locator

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/Barabama/WoWsBot/internal/pkg/utils"
)

// Unknown is the match name when no template clears the floor.
const Unknown = "unknown"

// Template is a reference image with its search area in frame coordinates.
type Template struct {
	Name   string
	Path   string
	Weight float64
	Area   image.Rectangle
	Mat    gocv.Mat
}

// Match is the result of one recognition pass. Frame is the frame that was
// searched; it stays owned by the caller that captured it.
type Match struct {
	Name  string
	Rect  image.Rectangle
	Score float64
	Frame *gocv.Mat
}

func (m Match) Known() bool {
	return m.Name != Unknown
}

func (m Match) Center() image.Point {
	return utils.GetCenter(m.Rect)
}

// MapSnapshot is what the minimap shows about the own ship and the others.
type MapSnapshot struct {
	Self    image.Point
	Heading utils.Vec
	Ally    []image.Point
	Enemy   []image.Point
}
