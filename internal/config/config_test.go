package config

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `{
	"region": [0, 0, 1280, 720],
	"positions": { "confirm_btn": [640, 500] },
	"areas": { "bigmap": { "area": [100, 50, 600, 600] } },
	"templates": { "battle_btn": { "weight": 2.0, "area": [500, 0, 280, 80] } }
}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFile, minimalConfig)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, image.Rect(0, 0, 1280, 720), cfg.RegionRect())
	assert.Equal(t, 2.0, cfg.Templates["battle_btn"].Weight)

	p, ok := cfg.Position("confirm_btn")
	require.True(t, ok)
	assert.Equal(t, image.Pt(640, 500), p)

	r, ok := cfg.AreaRect("bigmap")
	require.True(t, ok)
	assert.Equal(t, image.Rect(100, 50, 700, 650), r)
}

func TestLoad_DefaultValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFile, minimalConfig)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.7, cfg.MatchThreshold)
	assert.Equal(t, 0.65, cfg.MatchFloor)
	assert.Equal(t, 100*time.Second, cfg.Battle.AutopilotCooldown)
	assert.Equal(t, 2*time.Second, cfg.Battle.AimHold)
	assert.Equal(t, "m", cfg.Battle.MapKey)
	assert.Equal(t, time.Second, cfg.Loop.Interval)
	assert.Equal(t, 500*time.Millisecond, cfg.Loop.Settle)
	assert.Equal(t, "robotgo", cfg.Capture.Backend)
	assert.Contains(t, cfg.States.Active, "autopilot_on")
	assert.Contains(t, cfg.States.Ended, "f1_btn")
	assert.Equal(t, []string{"battle_btn"}, cfg.Port.Triggers["select_type"])
	assert.Equal(t, 4, cfg.Models["minimap"].Keypoints)
	assert.Equal(t, 3, cfg.Models["compass"].Keypoints)
	assert.False(t, cfg.Debug.Overlay)
}

func TestLoad_Override(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFile, `{
		"region": [0, 0, 1280, 720],
		"positions": {},
		"areas": {},
		"templates": {},
		"match_threshold": 0.8,
		"battle": { "autopilot_cooldown": "45s", "pixels_per_degree": 3.24 },
		"capture": { "backend": "screenshot" }
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.MatchThreshold)
	assert.Equal(t, 45*time.Second, cfg.Battle.AutopilotCooldown)
	assert.Equal(t, 3.24, cfg.Battle.PixelsPerDegree)
	assert.Equal(t, "screenshot", cfg.Capture.Backend)
	assert.Equal(t, "m", cfg.Battle.MapKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_MissingRequiredKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFile, `{ "region": [0, 0, 10, 10] }`)

	_, err := Load(dir)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "positions")
	assert.Contains(t, err.Error(), "templates")
}

func TestLoad_MalformedRegion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFile, `{
		"region": [0, 0, 1280],
		"positions": {}, "areas": {}, "templates": {}
	}`)

	_, err := Load(dir)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "region")
}

func TestLoad_MalformedArea(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFile, `{
		"region": [0, 0, 1280, 720],
		"positions": {}, "templates": {},
		"areas": { "minimap": { "area": [1, 2] } }
	}`)

	_, err := Load(dir)
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "minimap")
}

func TestFrameRect(t *testing.T) {
	cfg := &Config{Region: []int{100, 200, 1280, 720}}
	assert.Equal(t, image.Rect(0, 0, 1280, 720), cfg.FrameRect())
}
