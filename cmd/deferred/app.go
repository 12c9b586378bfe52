package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/der-antikeks/deferred/camera"
	"github.com/der-antikeks/deferred/config"
	"github.com/der-antikeks/deferred/gpu"
	"github.com/der-antikeks/deferred/light"
	"github.com/der-antikeks/deferred/pass"
	"github.com/der-antikeks/deferred/scene"
	"github.com/der-antikeks/deferred/shaders"
	"github.com/der-antikeks/deferred/shape"
	"github.com/der-antikeks/deferred/texture"
	"github.com/der-antikeks/deferred/transform"
)

// app ties the scene, the camera and the renderer of one backend together.
type app struct {
	cfg config.Config
	log *slog.Logger

	State    camera.State
	layout   *scene.Layout
	ground   *shape.Ground
	renderer *pass.Renderer

	shapes   []*shape.Shape
	textures []*texture.Texture
	elapsed  time.Duration
}

func newApp(b gpu.Backend, w, h int, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, State: cfg.CameraState()}

	sphere, box := shape.Sphere(32), shape.Box()
	a.shapes = append(a.shapes, sphere, box)

	assets := scene.Assets{
		Sphere:      sphere,
		Box:         box,
		ShowSpheres: cfg.Render.Spheres,
	}

	if cfg.Assets.Ground {
		a.ground = shape.NewGround(shape.DefaultGround())
		a.shapes = append(a.shapes, a.ground.Shape)
		assets.Ground = a.ground
		assets.Elevation = a.ground.HeightAt(0, 0)
	}

	if cfg.Assets.Model != "" {
		m, err := shape.LoadObjFile(cfg.Assets.Model)
		if err != nil {
			log.Warn("model not loaded, using sphere", "path", cfg.Assets.Model, "err", err)
		} else {
			a.shapes = append(a.shapes, m)
			assets.Centerpiece = m
			log.Debug("model loaded", "path", cfg.Assets.Model, "triangles", m.Triangles())
		}
	}

	assets.Sky = a.texture(b, cfg.Assets.Sky, color.Gray{Y: 128})
	if cfg.Assets.Texture != "" {
		assets.Texture = a.texture(b, cfg.Assets.Texture, color.White)
	}

	a.layout = scene.Default(assets)
	log.Info("scene built", "nodes", a.layout.Graph.Len())

	opts := pass.DefaultOptions()
	opts.ShadowSize = cfg.Render.ShadowSize
	opts.BlurWidth = cfg.Render.BlurWidth
	opts.HammersleySamples = cfg.Render.HammersleySamples
	opts.Light = config.Vec3(cfg.Light.Intensity)
	opts.Ambient = config.Vec3(cfg.Light.Ambient)
	opts.ClearColor = config.Vec3(cfg.Render.ClearColor).Vec4(1)
	opts.Shaders = shaders.Loader{Dir: cfg.Render.ShaderDir}
	if cfg.Assets.Sky != "" {
		opts.Radiance = assets.Sky.(*texture.Texture)
	}
	if cfg.Assets.Irradiance != "" {
		opts.Irradiance = a.texture(b, cfg.Assets.Irradiance, color.Black)
	}
	if cfg.Render.LocalLights {
		opts.LocalLights = true
		opts.Lights = light.Generate(cfg.LocalLights.Seed, cfg.LocalLights.Count)
		opts.LightVolume = sphere
	}

	r, err := pass.New(b, w, h, opts, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.renderer = r
	return a, nil
}

// texture loads path, falling back to a solid color.
func (a *app) texture(b gpu.Backend, path string, fallback color.Color) *texture.Texture {
	var t *texture.Texture
	if path != "" {
		var err error
		if t, err = texture.Load(b, path); err != nil {
			a.log.Warn("texture not loaded", "path", path, "err", err)
		}
	}
	if t == nil {
		t = texture.Solid(b, fallback)
	}
	a.textures = append(a.textures, t)
	return t
}

func (a *app) heightfield() camera.Heightfield {
	if a.ground == nil {
		return nil
	}
	return a.ground
}

// frame advances the animation and the camera by delta and renders a
// frame of w x h pixels.
func (a *app) frame(delta time.Duration, w, h int) error {
	a.elapsed += delta
	spin := a.cfg.Render.AnimationSpeed * float32(a.elapsed.Seconds())
	if err := a.layout.Graph.SetAnimation(a.layout.Anim, transform.Rotate(transform.Z, spin)); err != nil {
		return fmt.Errorf("animate: %w", err)
	}

	a.State.Update(delta, a.heightfield())
	return a.renderer.Render(a.layout.Graph, a.State.Frame(w, h), a.State.ShaderMode)
}

func (a *app) close() {
	if a.renderer != nil {
		a.renderer.Close()
	}
	for _, s := range a.shapes {
		s.Delete()
	}
	for _, t := range a.textures {
		t.Delete()
	}
}
