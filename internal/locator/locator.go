package locator

import (
	"image"
	"image/color"
	"sort"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/Barabama/WoWsBot/internal/config"
	"github.com/Barabama/WoWsBot/internal/detector"
	"github.com/Barabama/WoWsBot/internal/pkg/utils"
)

const (
	AreaBigmap  = "bigmap"
	AreaMinimap = "minimap"
	AreaCompass = "compass"

	labelSelf  = "self"
	labelAlly  = "ally"
	labelEnemy = "enemy"
)

// Locator recognizes screens and reads map areas of one game window.
type Locator struct {
	cfg       *config.Config
	log       zerolog.Logger
	assets    *Assets
	templates map[string]*Template
	overlay   *Overlay

	templateDetector detector.TemplateDetector
	colorDetector    detector.ColorDetector
}

// New binds a locator to the templates of one display language.
func New(cfg *config.Config, assets *Assets, lang string, log zerolog.Logger) *Locator {
	l := &Locator{
		cfg:              cfg,
		log:              log.With().Str("component", "locator").Logger(),
		assets:           assets,
		templates:        assets.Templates(lang),
		templateDetector: detector.NewTemplateDetector(),
		colorDetector:    detector.NewColorDetector(),
	}
	if cfg.Debug.Overlay {
		l.overlay = NewOverlay(cfg.Debug, l.log)
	}
	return l
}

// candidates returns the named templates, or all of them, by descending
// weight with ties broken by name.
func (l *Locator) candidates(names []string) []*Template {
	var tmpls []*Template
	if len(names) == 0 {
		for _, t := range l.templates {
			tmpls = append(tmpls, t)
		}
	} else {
		for _, name := range names {
			t, ok := l.templates[name]
			if !ok {
				l.log.Warn().Str("template", name).Msg("Template not loaded")
				continue
			}
			tmpls = append(tmpls, t)
		}
	}
	sort.SliceStable(tmpls, func(i, j int) bool {
		if tmpls[i].Weight != tmpls[j].Weight {
			return tmpls[i].Weight > tmpls[j].Weight
		}
		return tmpls[i].Name < tmpls[j].Name
	})
	return tmpls
}

// MatchTemplate finds which known screen element the frame shows. It never
// fails: without a hit above the floor the result is named Unknown.
func (l *Locator) MatchTemplate(frame *gocv.Mat, names ...string) Match {
	best := Match{Name: Unknown, Score: l.cfg.MatchFloor, Frame: frame}
	tmpls := l.candidates(names)

	for _, t := range tmpls {
		param := detector.NewTemplateDetectParam(*frame, t.Mat, t.Area)
		rect, score, ok := l.templateDetector.Detect(param)
		if !ok {
			l.log.Debug().Str("template", t.Name).Msg("Template does not fit its area")
			continue
		}
		// best starts at the floor, so only real hits replace it
		if score > best.Score {
			best = Match{Name: t.Name, Rect: rect, Score: score, Frame: frame}
		}
		// confident enough, lighter templates are not tried
		if score >= l.cfg.MatchThreshold {
			break
		}
	}
	l.log.Debug().Str("match", best.Name).Float64("score", best.Score).Msg("Matched")

	if l.overlay != nil {
		l.overlay.Show(best.Name, *frame, func(dsp *gocv.Mat) {
			if best.Known() {
				gocv.Rectangle(dsp, best.Rect, color.RGBA{255, 0, 0, 0}, 3)
				return
			}
			for _, t := range tmpls {
				gocv.Rectangle(dsp, t.Area, color.RGBA{0, 255, 0, 0}, 3)
			}
		})
	}
	return best
}

// area clips a configured area to the frame.
func (l *Locator) area(frame *gocv.Mat, name string) (image.Rectangle, bool) {
	r, ok := l.cfg.AreaRect(name)
	if !ok {
		l.log.Warn().Str("area", name).Msg("Area not configured")
		return image.Rectangle{}, false
	}
	r = r.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	return r, !r.Empty()
}

// ReadBigmap returns the centroids of enemy marker clusters on the open
// tactical map, in frame coordinates.
func (l *Locator) ReadBigmap(frame *gocv.Mat) ([]image.Point, bool) {
	area, ok := l.area(frame, AreaBigmap)
	if !ok {
		return nil, false
	}
	roi := frame.Region(area)
	defer roi.Close()

	// red markers, then one centroid per cluster
	points, ok := l.colorDetector.Detect(detector.NewColorDetectParam(roi, detector.RedBands...))
	if !ok {
		l.log.Info().Msg("No red point found")
		return nil, false
	}

	centers := detector.Cluster(points, detector.ClusterCount(len(points)))
	// ROI coordinates back to the frame
	for i := range centers {
		centers[i] = utils.ToGlobalPoint(area.Min, centers[i])
	}

	if l.overlay != nil {
		l.overlay.Show(AreaBigmap, *frame, func(dsp *gocv.Mat) {
			for _, c := range centers {
				gocv.Circle(dsp, c, 5, color.RGBA{255, 0, 0, 0}, -1)
			}
		})
	}
	return centers, len(centers) > 0
}

// detect runs a keypoint model over an area and returns the detections in
// frame coordinates.
func (l *Locator) detect(frame *gocv.Mat, model, areaName string) ([]detector.Detection, bool) {
	d, ok := l.assets.Model(model)
	if !ok {
		return nil, false
	}
	area, ok := l.area(frame, areaName)
	if !ok {
		return nil, false
	}
	roi := frame.Region(area)
	defer roi.Close()

	def := l.cfg.Models[model]
	dets, ok := d.Detect(detector.NewKeypointDetectParam(&roi, def.Score, def.NMS))
	if !ok {
		return nil, false
	}
	// shift everything out of the ROI
	for i := range dets {
		dets[i].Box = dets[i].Box.Add(area.Min)
		dets[i].Center = dets[i].Center.Add(area.Min)
		for j := range dets[i].Keypoints {
			dets[i].Keypoints[j].Pos = dets[i].Keypoints[j].Pos.Add(area.Min)
		}
	}
	return dets, true
}

// bestSelf picks the most confident own-ship detection.
func bestSelf(dets []detector.Detection) (detector.Detection, bool) {
	var best detector.Detection
	found := false
	for _, d := range dets {
		if d.Label == labelSelf && (!found || d.Score > best.Score) {
			best = d
			found = true
		}
	}
	return best, found
}

// heading fits a line through center and keypoints and points it at the bow.
// keypoints[0] is the bow; the first n keypoints must all be visible.
func heading(self detector.Detection, n int) (utils.Vec, bool) {
	if len(self.Keypoints) < n {
		return utils.Vec{}, false
	}
	center := utils.FromPoint(self.Center)
	points := []utils.Vec{center}
	for _, kp := range self.Keypoints[:n] {
		if !kp.Visible {
			return utils.Vec{}, false
		}
		points = append(points, utils.FromPoint(kp.Pos))
	}
	dir, ok := utils.FitDirection(points)
	if !ok {
		return utils.Vec{}, false
	}
	return utils.Orient(dir, center, utils.FromPoint(self.Keypoints[0].Pos)), true
}

// ReadMinimap locates the own ship and its heading on the minimap, with the
// positions of allies and enemies. Own-ship keypoints are bow, stern, port
// and starboard.
func (l *Locator) ReadMinimap(frame *gocv.Mat) (*MapSnapshot, bool) {
	dets, ok := l.detect(frame, ModelMinimap, AreaMinimap)
	if !ok {
		return nil, false
	}
	self, ok := bestSelf(dets)
	if !ok {
		l.log.Debug().Msg("Own ship not found on minimap")
		return nil, false
	}
	dir, ok := heading(self, 4)
	if !ok {
		l.log.Debug().Int("visible", self.VisibleKeypoints()).Msg("Own ship keypoints incomplete")
		return nil, false
	}

	snap := &MapSnapshot{Self: self.Center, Heading: dir}
	for _, d := range dets {
		switch d.Label {
		case labelAlly:
			snap.Ally = append(snap.Ally, d.Center)
		case labelEnemy:
			snap.Enemy = append(snap.Enemy, d.Center)
		}
	}
	return snap, true
}

// ReadCompass returns the direction the camera-relative ship icon points to.
// Keypoints are bow, port and starboard.
func (l *Locator) ReadCompass(frame *gocv.Mat) (utils.Vec, bool) {
	dets, ok := l.detect(frame, ModelCompass, AreaCompass)
	if !ok {
		return utils.Vec{}, false
	}
	self, ok := bestSelf(dets)
	if !ok {
		return utils.Vec{}, false
	}
	return heading(self, 3)
}
