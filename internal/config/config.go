package config

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Barabama/WoWsBot/internal/pkg/utils"
)

// ErrInvalid marks configuration errors that must abort startup.
var ErrInvalid = errors.New("invalid configuration")

const (
	ConfigFile = "config.json"
	UserFile   = "user.json"
)

var requiredKeys = []string{"region", "positions", "areas", "templates"}

type Area struct {
	Area []int `mapstructure:"area"`
}

type TemplateDef struct {
	Name   string  `mapstructure:"name"`
	Weight float64 `mapstructure:"weight"`
	Area   []int   `mapstructure:"area"`
}

// ModelDef describes a keypoint detection model (YOLO pose exported to ONNX).
type ModelDef struct {
	Path      string   `mapstructure:"path"`
	InputSize int      `mapstructure:"input_size"`
	Labels    []string `mapstructure:"labels"`
	Keypoints int      `mapstructure:"keypoints"`
	Score     float32  `mapstructure:"score"`
	NMS       float32  `mapstructure:"nms"`
}

// StateConfig groups recognized template names by game phase.
// Names not listed anywhere are treated as port screens.
type StateConfig struct {
	Prep   []string `mapstructure:"prep"`
	Active []string `mapstructure:"active"`
	Ended  []string `mapstructure:"ended"`
}

type PortConfig struct {
	Triggers     map[string][]string `mapstructure:"triggers"`
	CloseNames   []string            `mapstructure:"close_names"`
	OverlayNames []string            `mapstructure:"overlay_names"`
	BattleType   string              `mapstructure:"battle_type"`
}

type BattleConfig struct {
	AutopilotCooldown time.Duration `mapstructure:"autopilot_cooldown"`
	MapKey            string        `mapstructure:"map_key"`
	ZoomKeys          []string      `mapstructure:"zoom_keys"`
	ZoomInterval      time.Duration `mapstructure:"zoom_interval"`
	ForwardKey        string        `mapstructure:"forward_key"`
	ForwardPresses    int           `mapstructure:"forward_presses"`
	PixelsPerDegree   float64       `mapstructure:"pixels_per_degree"`
	AbilityKeys       []string      `mapstructure:"ability_keys"`
	SecondaryKeys     []string      `mapstructure:"secondary_keys"`
	MainKeys          []string      `mapstructure:"main_keys"`
	AimHold           time.Duration `mapstructure:"aim_hold"`
	QuitDelay         time.Duration `mapstructure:"quit_delay"`
}

type LoopConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Settle   time.Duration `mapstructure:"settle"`
}

type CaptureConfig struct {
	Backend string `mapstructure:"backend"`
}

type DebugConfig struct {
	Overlay bool          `mapstructure:"overlay"`
	Display time.Duration `mapstructure:"display"`
	Scale   float64       `mapstructure:"scale"`
}

// Config is the game-side document: screen geometry, templates and models.
type Config struct {
	Dir string `mapstructure:"-"`

	Region         []int                  `mapstructure:"region"`
	Positions      map[string][]int       `mapstructure:"positions"`
	Areas          map[string]Area        `mapstructure:"areas"`
	Templates      map[string]TemplateDef `mapstructure:"templates"`
	Models         map[string]ModelDef    `mapstructure:"models"`
	MatchThreshold float64                `mapstructure:"match_threshold"`
	MatchFloor     float64                `mapstructure:"match_floor"`

	States  StateConfig   `mapstructure:"states"`
	Port    PortConfig    `mapstructure:"port"`
	Battle  BattleConfig  `mapstructure:"battle"`
	Loop    LoopConfig    `mapstructure:"loop"`
	Capture CaptureConfig `mapstructure:"capture"`
	Debug   DebugConfig   `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("match_threshold", 0.7)
	v.SetDefault("match_floor", 0.65)

	v.SetDefault("models.minimap.path", "minimap.onnx")
	v.SetDefault("models.minimap.input_size", 640)
	v.SetDefault("models.minimap.labels", []string{"self", "ally", "enemy"})
	v.SetDefault("models.minimap.keypoints", 4)
	v.SetDefault("models.minimap.score", 0.5)
	v.SetDefault("models.minimap.nms", 0.5)
	v.SetDefault("models.compass.path", "compass.onnx")
	v.SetDefault("models.compass.input_size", 640)
	v.SetDefault("models.compass.labels", []string{"self"})
	v.SetDefault("models.compass.keypoints", 3)
	v.SetDefault("models.compass.score", 0.5)
	v.SetDefault("models.compass.nms", 0.5)

	v.SetDefault("states.prep", []string{"battle_loading", "battle_queue", "battle_mission", "battle_member", "battle_tips"})
	v.SetDefault("states.active", []string{"battle_began", "map_mode", "b_btn", "autopilot_on"})
	v.SetDefault("states.ended", []string{"shift_btn", "f1_btn", "back_to_port_btn_2"})

	v.SetDefault("port.triggers.select_type", []string{"battle_btn"})
	v.SetDefault("port.triggers.select_ship", []string{"battle_btn", "coop_mode"})
	v.SetDefault("port.triggers.equip", []string{"battle_btn", "coop_mode"})
	v.SetDefault("port.triggers.remove_flag", []string{})
	v.SetDefault("port.triggers.remove_buff", []string{})
	v.SetDefault("port.close_names", []string{"back_to_port_btn_1", "back_to_port_btn_2", "close_btn_1", "close_btn_2", "esc_btn"})
	v.SetDefault("port.overlay_names", []string{"rewards_btn", "login_btn"})
	v.SetDefault("port.battle_type", "coop")

	v.SetDefault("battle.autopilot_cooldown", "100s")
	v.SetDefault("battle.map_key", "m")
	v.SetDefault("battle.zoom_keys", []string{"+", "+", "+", "+", "+", "+", "-", "-", "-"})
	v.SetDefault("battle.zoom_interval", "500ms")
	v.SetDefault("battle.forward_key", "w")
	v.SetDefault("battle.forward_presses", 4)
	v.SetDefault("battle.pixels_per_degree", 10.0)
	v.SetDefault("battle.ability_keys", []string{"f", "g", "c", "r", "t", "y", "u", "i"})
	v.SetDefault("battle.secondary_keys", []string{"3", "4"})
	v.SetDefault("battle.main_keys", []string{"1", "2"})
	v.SetDefault("battle.aim_hold", "2s")
	v.SetDefault("battle.quit_delay", "1s")

	v.SetDefault("loop.interval", "1s")
	v.SetDefault("loop.settle", "500ms")
	v.SetDefault("capture.backend", "robotgo")

	v.SetDefault("debug.overlay", false)
	v.SetDefault("debug.display", "3s")
	v.SetDefault("debug.scale", 0.5)
}

// Load reads config.json from dir, applies defaults and validates it.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(filepath.Join(dir, ConfigFile))
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var missing []string
	for _, key := range requiredKeys {
		if !v.InConfig(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing keys in %s: %v", ErrInvalid, ConfigFile, missing)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.Dir = dir

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, ok := utils.RectFromXYWH(c.Region); !ok {
		return fmt.Errorf("%w: region must be [x, y, w, h], got %v", ErrInvalid, c.Region)
	}
	for name, a := range c.Areas {
		if _, ok := utils.RectFromXYWH(a.Area); !ok {
			return fmt.Errorf("%w: area %q must be [x, y, w, h], got %v", ErrInvalid, name, a.Area)
		}
	}
	for name, p := range c.Positions {
		if len(p) != 2 {
			return fmt.Errorf("%w: position %q must be [x, y], got %v", ErrInvalid, name, p)
		}
	}
	if c.MatchFloor <= 0 || c.MatchFloor > c.MatchThreshold {
		return fmt.Errorf("%w: match_floor %.2f must be in (0, match_threshold %.2f]", ErrInvalid, c.MatchFloor, c.MatchThreshold)
	}
	return nil
}

// RegionRect is the captured screen rectangle.
func (c *Config) RegionRect() image.Rectangle {
	r, _ := utils.RectFromXYWH(c.Region)
	return r
}

// FrameRect is the frame bounds: the region moved to the origin.
func (c *Config) FrameRect() image.Rectangle {
	r := c.RegionRect()
	return r.Sub(r.Min)
}

func (c *Config) AreaRect(name string) (image.Rectangle, bool) {
	a, ok := c.Areas[name]
	if !ok {
		return image.Rectangle{}, false
	}
	return utils.RectFromXYWH(a.Area)
}

func (c *Config) Position(name string) (image.Point, bool) {
	p, ok := c.Positions[name]
	if !ok || len(p) != 2 {
		return image.Point{}, false
	}
	return image.Pt(p[0], p[1]), true
}

func (c *Config) TemplatesDir() string {
	return filepath.Join(c.Dir, "templates")
}

func (c *Config) ModelsDir() string {
	return filepath.Join(c.Dir, "models")
}
