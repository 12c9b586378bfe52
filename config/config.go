// Package config reads the renderer settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/der-antikeks/deferred/camera"
)

type Config struct {
	Window      Window      `toml:"window"`
	Render      Render      `toml:"render"`
	Camera      Camera      `toml:"camera"`
	Light       Light       `toml:"light"`
	LocalLights LocalLights `toml:"local_lights"`
	Assets      Assets      `toml:"assets"`
	Log         Log         `toml:"log"`
}

type Window struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	VSync  bool   `toml:"vsync"`
}

type Render struct {
	ShadowSize        int        `toml:"shadow_size"`
	BlurWidth         int        `toml:"blur_width"`
	HammersleySamples int        `toml:"hammersley_samples"`
	LocalLights       bool       `toml:"local_lights"`
	ClearColor        [3]float32 `toml:"clear_color"`
	// degrees per second of the animated group
	AnimationSpeed float32 `toml:"animation_speed"`
	Spheres        bool    `toml:"spheres"`
	ShaderDir      string  `toml:"shader_dir"`
}

type Camera struct {
	Spin    float32    `toml:"spin"`
	Tilt    float32    `toml:"tilt"`
	Zoom    float32    `toml:"zoom"`
	Ry      float32    `toml:"ry"`
	Front   float32    `toml:"front"`
	Back    float32    `toml:"back"`
	Eye     [3]float32 `toml:"eye"`
	Speed   float32    `toml:"speed"`
	FreeFly bool       `toml:"free_fly"`
}

type Light struct {
	Spin      float32    `toml:"spin"`
	Tilt      float32    `toml:"tilt"`
	Dist      float32    `toml:"dist"`
	Intensity [3]float32 `toml:"intensity"`
	Ambient   [3]float32 `toml:"ambient"`
}

type LocalLights struct {
	Count int    `toml:"count"`
	Seed  uint32 `toml:"seed"`
}

// Assets are file paths; empty paths fall back to built-in replacements.
type Assets struct {
	Sky        string `toml:"sky"`
	Irradiance string `toml:"irradiance"`
	Model      string `toml:"model"`
	Texture    string `toml:"texture"`
	Ground     bool   `toml:"ground"`
}

type Log struct {
	Level string `toml:"level"`
}

func Default() Config {
	cam := camera.Default()
	return Config{
		Window: Window{Width: 1280, Height: 720, Title: "deferred", VSync: true},
		Render: Render{
			ShadowSize:        1000,
			BlurWidth:         10,
			HammersleySamples: 40,
			ClearColor:        [3]float32{0.5, 0.5, 0.5},
			Spheres:           true,
		},
		Camera: Camera{
			Spin:  cam.Spin,
			Tilt:  cam.Tilt,
			Zoom:  cam.Zoom,
			Ry:    cam.Ry,
			Front: cam.Front,
			Back:  cam.Back,
			Eye:   cam.Eye,
			Speed: cam.Speed,
		},
		Light: Light{
			Spin:      cam.LightSpin,
			Tilt:      cam.LightTilt,
			Dist:      cam.LightDist,
			Intensity: [3]float32{3, 3, 3},
			Ambient:   [3]float32{0.2, 0.2, 0.2},
		},
		LocalLights: LocalLights{Count: 100, Seed: 13},
		Assets:      Assets{Ground: true},
		Log:         Log{Level: "info"},
	}
}

// Load decodes the file at path over the defaults. An empty path returns
// the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&c); err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			return c, fmt.Errorf("%s: %s", path, sme.String())
		}
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, c.Validate()
}

// Validate rejects settings the renderer cannot work with.
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Render.ShadowSize <= 0 {
		errs = append(errs, fmt.Errorf("shadow_size %d", c.Render.ShadowSize))
	}
	if c.Render.BlurWidth < 0 || c.Render.BlurWidth > 50 {
		errs = append(errs, fmt.Errorf("blur_width %d not in [0, 50]", c.Render.BlurWidth))
	}
	if c.Render.HammersleySamples <= 0 || c.Render.HammersleySamples > 200 {
		errs = append(errs, fmt.Errorf("hammersley_samples %d not in [1, 200]", c.Render.HammersleySamples))
	}
	if c.Camera.Front <= 0 || c.Camera.Front >= c.Camera.Back {
		errs = append(errs, fmt.Errorf("clip planes front %v back %v", c.Camera.Front, c.Camera.Back))
	}
	if c.Camera.Ry <= 0 {
		errs = append(errs, fmt.Errorf("ry %v", c.Camera.Ry))
	}
	if c.Light.Dist <= 0 {
		errs = append(errs, fmt.Errorf("light dist %v", c.Light.Dist))
	}
	if c.LocalLights.Count < 0 {
		errs = append(errs, fmt.Errorf("local light count %d", c.LocalLights.Count))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LogLevel returns the configured level, info if unknown.
func (c Config) LogLevel() slog.Level {
	l, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// CameraState returns the initial camera and light state.
func (c Config) CameraState() camera.State {
	s := camera.Default()
	s.Spin, s.Tilt, s.Zoom = c.Camera.Spin, c.Camera.Tilt, c.Camera.Zoom
	s.Ry, s.Front, s.Back = c.Camera.Ry, c.Camera.Front, c.Camera.Back
	s.Eye = c.Camera.Eye
	s.Speed = c.Camera.Speed
	if c.Camera.FreeFly {
		s.Mode = camera.FreeFly
	}
	s.LightSpin, s.LightTilt, s.LightDist = c.Light.Spin, c.Light.Tilt, c.Light.Dist
	return s
}

// Vec3 converts a TOML triple.
func Vec3(v [3]float32) mgl32.Vec3 {
	return mgl32.Vec3(v)
}
