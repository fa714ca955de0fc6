package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Camera selects the view direction. FOV is only used when Perspective
// is set.
type Camera struct {
	Azimuth     float64 `json:"azimuth"`
	Elevation   float64 `json:"elevation"`
	Perspective bool    `json:"perspective"`
	FOV         float64 `json:"fov"`
}

// Config holds all configurable paths and render settings.
type Config struct {
	// Paths
	URDF       string `json:"urdf"`
	MeshDir    string `json:"mesh_dir"`
	Trajectory string `json:"trajectory"`
	Output     string `json:"output"`

	// Render settings
	RenderSize  int     `json:"render_size"`
	Supersample int     `json:"supersample"`
	Workers     int     `json:"workers"`
	Camera      Camera  `json:"camera"`
	Color       string  `json:"color"`
	Opacity     float64 `json:"opacity"`
	Floor       bool    `json:"floor"`
	Background  string  `json:"background"`

	// Playback settings
	FPS        float64 `json:"fps"`
	Resample   bool    `json:"resample"`
	Overlay    bool    `json:"overlay"`
	GhostEvery int     `json:"ghost_every"`
	TracePath  bool    `json:"trace_path"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) error {
	// CLI flags override config file
	if flags.URDF != "" {
		c.URDF = flags.URDF
	}
	if flags.Trajectory != "" {
		c.Trajectory = flags.Trajectory
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.Size > 0 {
		c.RenderSize = flags.Size
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.FPS > 0 {
		c.FPS = flags.FPS
	}
	if flags.Color != "" {
		c.Color = flags.Color
	}
	if flags.Opacity > 0 {
		c.Opacity = flags.Opacity
	}
	if flags.GhostEvery > 0 {
		c.GhostEvery = flags.GhostEvery
	}
	if flags.Camera != "" {
		cam, err := ParseCamera(flags.Camera)
		if err != nil {
			return err
		}
		c.Camera = cam
	}

	// Resolve relative paths against the description's directory
	if c.URDF != "" {
		if c.MeshDir == "" {
			c.MeshDir = filepath.Dir(c.URDF)
		} else if !filepath.IsAbs(c.MeshDir) {
			c.MeshDir = filepath.Join(filepath.Dir(c.URDF), c.MeshDir)
		}
	}

	// Defaults for render settings
	if c.RenderSize <= 0 {
		c.RenderSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Camera == (Camera{}) {
		c.Camera = Camera{Azimuth: 45, Elevation: 30, FOV: 40}
	}
	return nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	URDF       string
	Trajectory string
	Output     string
	Camera     string
	Color      string
	Size       int
	Workers    int
	GhostEvery int
	FPS        float64
	Opacity    float64
}

// ParseCamera parses "azimuth,elevation" or "azimuth,elevation,fov"; the
// three-part form selects a perspective projection.
func ParseCamera(s string) (Camera, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return Camera{}, fmt.Errorf("config: camera %q, want az,el or az,el,fov", s)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Camera{}, fmt.Errorf("config: camera %q: %w", s, err)
		}
		vals[i] = v
	}
	cam := Camera{Azimuth: vals[0], Elevation: vals[1]}
	if len(vals) == 3 {
		cam.Perspective = true
		cam.FOV = vals[2]
	}
	return cam, nil
}
