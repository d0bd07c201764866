package bot

import (
	"image"
	"math"
	"sort"

	"github.com/Barabama/WoWsBot/internal/locator"
	"github.com/Barabama/WoWsBot/internal/pkg/utils"
)

// Target is an enemy seen on the minimap. Bearing is clockwise from north.
type Target struct {
	Pos      image.Point
	Bearing  float64
	Distance float64
}

// Chart is the own ship's situation in map terms. Heading is where the hull
// points, Sight where the camera looks; both are bearings in [0, 2π).
type Chart struct {
	Self    image.Point
	Heading float64
	Sight   float64
	Enemies []Target
}

// BuildChart combines the minimap with the compass. The compass shows the
// hull relative to the camera, so the camera bearing is the hull bearing
// minus the compass angle. Enemies are ordered nearest first.
func BuildChart(snap *locator.MapSnapshot, compass utils.Vec) Chart {
	heading := utils.Bearing(snap.Heading, utils.North)
	relative := utils.Bearing(compass, utils.North)

	c := Chart{
		Self:    snap.Self,
		Heading: heading,
		Sight:   utils.NormalizeAngle(heading - relative),
	}
	self := utils.FromPoint(snap.Self)
	for _, p := range snap.Enemy {
		d := utils.FromPoint(p).Sub(self)
		c.Enemies = append(c.Enemies, Target{
			Pos:      p,
			Bearing:  utils.Bearing(d, utils.North),
			Distance: d.Norm(),
		})
	}
	sort.SliceStable(c.Enemies, func(i, j int) bool {
		return c.Enemies[i].Distance < c.Enemies[j].Distance
	})
	return c
}

// Nearest returns the closest enemy.
func (c Chart) Nearest() (Target, bool) {
	if len(c.Enemies) == 0 {
		return Target{}, false
	}
	return c.Enemies[0], true
}

// AimOffset converts the angle from the sight line to the target into a
// horizontal pointer displacement.
func (c Chart) AimOffset(t Target, pixelsPerDegree float64) int {
	perRadian := pixelsPerDegree * 180 / math.Pi
	return int(math.Round(utils.AngleDiff(t.Bearing, c.Sight) * perRadian))
}
