package locator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/Barabama/WoWsBot/internal/config"
	"github.com/Barabama/WoWsBot/internal/detector"
	"github.com/Barabama/WoWsBot/internal/pkg/utils"
)

const (
	ModelMinimap = "minimap"
	ModelCompass = "compass"

	defaultWeight = 1.0
)

// Assets holds what every instance shares: keypoint models, loaded once, and
// templates, loaded once per display language.
type Assets struct {
	cfg *config.Config
	log zerolog.Logger

	mu        sync.Mutex
	models    map[string]detector.KeypointDetector
	tried     map[string]bool
	templates map[string]map[string]*Template
}

func NewAssets(cfg *config.Config, log zerolog.Logger) *Assets {
	return &Assets{
		cfg:       cfg,
		log:       log.With().Str("component", "assets").Logger(),
		models:    make(map[string]detector.KeypointDetector),
		tried:     make(map[string]bool),
		templates: make(map[string]map[string]*Template),
	}
}

// SetModel installs a detector under name, replacing any loaded model.
func (a *Assets) SetModel(name string, d detector.KeypointDetector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.models[name] = d
	a.tried[name] = true
}

// Model returns the named keypoint model. A model that fails to load is
// reported once and stays unavailable.
func (a *Assets) Model(name string) (detector.KeypointDetector, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if d, ok := a.models[name]; ok {
		return d, true
	}
	if a.tried[name] {
		return nil, false
	}
	a.tried[name] = true

	def, ok := a.cfg.Models[name]
	if !ok {
		a.log.Warn().Str("model", name).Msg("Model not configured")
		return nil, false
	}
	path := def.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.ModelsDir(), path)
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		a.log.Warn().Str("model", name).Str("path", path).Msg("Model not found")
		return nil, false
	}
	d, err := detector.NewKeypointDetector(path, def.InputSize, def.Labels, def.Keypoints)
	if err != nil {
		a.log.Warn().Err(err).Str("model", name).Msg("Model unavailable")
		return nil, false
	}
	a.log.Info().Str("model", name).Str("path", path).Msg("Loaded model")
	a.models[name] = d
	return d, true
}

// Templates returns the templates for a display language, loading them on
// first use.
func (a *Assets) Templates(lang string) map[string]*Template {
	dir := ResolveLanguage(a.cfg.TemplatesDir(), lang)

	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.templates[dir]; ok {
		return t
	}
	t := a.loadTemplates(filepath.Join(a.cfg.TemplatesDir(), dir))
	a.templates[dir] = t
	return t
}

func (a *Assets) loadTemplates(dir string) map[string]*Template {
	tmpls := make(map[string]*Template)
	for key, def := range a.cfg.Templates {
		name := def.Name
		if name == "" {
			name = key
		}
		area := a.cfg.FrameRect()
		if len(def.Area) > 0 {
			r, ok := utils.RectFromXYWH(def.Area)
			if !ok {
				a.log.Warn().Str("template", name).Ints("area", def.Area).Msg("Template area is not [x, y, w, h]")
				continue
			}
			area = r
		}
		weight := def.Weight
		if weight == 0 {
			weight = defaultWeight
		}

		path := filepath.Join(dir, name+".png")
		mat, err := detector.LoadTemplate(path)
		if err != nil {
			a.log.Warn().Str("template", name).Str("path", path).Msg("Template not found")
			continue
		}
		tmpls[name] = &Template{Name: name, Path: path, Weight: weight, Area: area, Mat: mat}
	}
	a.log.Info().Str("dir", dir).Int("count", len(tmpls)).Msg("Loaded templates")
	return tmpls
}

func (a *Assets) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, set := range a.templates {
		for _, t := range set {
			t.Mat.Close()
		}
	}
	a.templates = make(map[string]map[string]*Template)
	for name, d := range a.models {
		if c, ok := d.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				a.log.Warn().Err(err).Str("model", name).Msg("Failed to release model")
			}
		}
	}
	a.models = make(map[string]detector.KeypointDetector)
}

// ResolveLanguage picks the template subdirectory of root closest to lang,
// e.g. "zh-Hans" or "zh_CN" resolve to "zh_CN", "en-US" to "en". Without a
// usable match it prefers "en", then the first directory, then lang itself.
func ResolveLanguage(root, lang string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return lang
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if e.Name() == lang {
			return lang
		}
		if _, err := parseTag(e.Name()); err == nil {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) == 0 {
		return lang
	}

	// The matcher falls back to its first tag.
	sort.SliceStable(dirs, func(i, j int) bool { return dirs[i] == "en" && dirs[j] != "en" })
	tags := make([]language.Tag, len(dirs))
	for i, d := range dirs {
		tags[i], _ = parseTag(d)
	}

	want, err := parseTag(lang)
	if err != nil {
		return dirs[0]
	}
	_, idx, _ := language.NewMatcher(tags).Match(want)
	return dirs[idx]
}

func parseTag(s string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(s, "_", "-"))
}
