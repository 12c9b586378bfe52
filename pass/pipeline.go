package pass

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/der-antikeks/deferred/gpu"
	"github.com/der-antikeks/deferred/transform"
)

// Pass names.
const (
	GBufferPass     = "gbuffer"
	ShadowPass      = "shadow"
	ShadowBlurVPass = "shadow-blur-v"
	ShadowBlurHPass = "shadow-blur-h"
	AOVPass         = "ao-v"
	AOHPass         = "ao-h"
	LightingPass    = "lighting"
	LocalLightsPass = "local-lights"
)

// localSize is the work group length of the separable compute shaders.
const localSize = 128

func groups(n int) int {
	return (n + localSize - 1) / localSize
}

// vertical and horizontal work groups covering target t
func verticalGroups(t string) func(c *Context) (int, int) {
	return func(c *Context) (int, int) {
		w, h := c.targets[t].Size()
		return w, groups(h)
	}
}

func horizontalGroups(t string) func(c *Context) (int, int) {
	return func(c *Context) (int, int) {
		w, h := c.targets[t].Size()
		return groups(w), h
	}
}

// Pipeline returns the fixed pass sequence.
func Pipeline(opts Options) []Pass {
	passes := []Pass{
		{
			Name:      GBufferPass,
			Kind:      Raster,
			Program:   "gbuffer",
			Target:    GBuffer,
			Outputs:   4,
			Clear:     true,
			Cull:      gpu.CullNone,
			DepthTest: true,
			Setup:     setupGBuffer,
		},
		{
			Name:       ShadowPass,
			Kind:       Raster,
			Program:    "shadow",
			Target:     Shadow,
			Outputs:    1,
			Clear:      true,
			ClearColor: mgl32.Vec4{1, 1, 1, 1},
			Cull:       gpu.CullFront,
			DepthTest:  true,
			Setup:      setupShadow,
		},
		{
			Name:    ShadowBlurVPass,
			Kind:    Compute,
			Program: "shadowv",
			Target:  ShadowBlur,
			Inputs:  []string{Shadow},
			Setup:   setupBlur(Shadow, ShadowBlur),
			Groups:  verticalGroups(ShadowBlur),
		},
		{
			Name:    ShadowBlurHPass,
			Kind:    Compute,
			Program: "shadowh",
			Target:  Shadow,
			Inputs:  []string{ShadowBlur},
			Setup:   setupBlur(ShadowBlur, Shadow),
			Groups:  horizontalGroups(Shadow),
		},
		{
			Name:    AOVPass,
			Kind:    Compute,
			Program: "aov",
			Target:  AOTemp,
			Inputs:  []string{GBuffer},
			History: []string{AOScalar},
			Setup:   setupAO(AOScalar, AOTemp),
			Groups:  verticalGroups(AOTemp),
		},
		{
			Name:    AOHPass,
			Kind:    Compute,
			Program: "aoh",
			Target:  AOScalar,
			Inputs:  []string{GBuffer, AOTemp},
			Setup:   setupAO(AOTemp, AOScalar),
			Groups:  horizontalGroups(AOScalar),
		},
		{
			Name:       LightingPass,
			Kind:       Raster,
			Program:    "lighting",
			Inputs:     []string{GBuffer, Shadow, AOScalar},
			Clear:      true,
			ClearColor: opts.ClearColor,
			Cull:       gpu.CullNone,
			DepthTest:  true,
			Setup:      setupLighting,
		},
	}

	if opts.LocalLights {
		passes = append(passes, Pass{
			Name:    LocalLightsPass,
			Kind:    Raster,
			Program: "local",
			Inputs:  []string{GBuffer},
			Cull:    gpu.CullFront,
			Blend:   true,
			Setup:   setupLocal,
			Draw:    drawLocal,
		})
	}

	return passes
}

func setupGBuffer(c *Context, p gpu.Program) error {
	c.SetCamera(p)
	return nil
}

func setupShadow(c *Context, p gpu.Program) error {
	p.SetMat4("WorldProj", c.Frame.LightProj)
	p.SetMat4("WorldView", c.Frame.LightView)
	p.SetInt("mode", c.Mode)
	return nil
}

func setupBlur(src, dst string) func(c *Context, p gpu.Program) error {
	return func(c *Context, p gpu.Program) error {
		c.BindKernel(p)
		c.BindImages(p, src, dst)
		return nil
	}
}

func (c *Context) bindGBuffer(p gpu.Program, n int) error {
	for i := 0; i < n; i++ {
		if err := c.BindTarget(p, fmt.Sprintf("G%d", i), GBuffer, i); err != nil {
			return err
		}
	}
	w, h := c.targets[GBuffer].Size()
	p.SetInt("screenWidth", int32(w))
	p.SetInt("screenHeight", int32(h))
	return nil
}

func setupAO(src, dst string) func(c *Context, p gpu.Program) error {
	return func(c *Context, p gpu.Program) error {
		c.BindKernel(p)
		if err := c.bindGBuffer(p, 4); err != nil {
			return err
		}
		p.SetVec3("eyePos", c.Frame.Eye)
		c.BindImages(p, src, dst)
		return nil
	}
}

func setupLighting(c *Context, p gpu.Program) error {
	c.SetCamera(p)
	if err := c.bindGBuffer(p, 4); err != nil {
		return err
	}
	if err := c.BindTarget(p, "shadowMap", Shadow, 0); err != nil {
		return err
	}
	if err := c.BindTarget(p, "AOMap", AOScalar, 0); err != nil {
		return err
	}
	if err := c.BindTexture(p, "IBL", c.radiance.Handle()); err != nil {
		return err
	}
	if err := c.BindTexture(p, "IRRIBL", c.irradiance.Handle()); err != nil {
		return err
	}
	p.SetInt("iblWidth", int32(c.radiance.Width))
	p.SetInt("iblHeight", int32(c.radiance.Height))

	c.Backend.BindUniformBuffer(HammersleyBindpoint, c.hammersley)
	p.SetBlock("HammersleyBlock", HammersleyBindpoint)
	return nil
}

func setupLocal(c *Context, p gpu.Program) error {
	c.SetCamera(p)
	return c.bindGBuffer(p, 3)
}

// drawLocal draws one light volume per local light.
func drawLocal(c *Context, p gpu.Program) {
	vol := c.Options.LightVolume
	if vol == nil {
		return
	}
	for _, l := range c.Options.Lights {
		p.SetVec3("localPos", l.Pos)
		p.SetVec3("localColor", l.Color)
		p.SetFloat("localRadius", l.Radius)
		p.SetMat4("ModelTr", transform.Compose(
			transform.TranslateV(l.Pos),
			transform.ScaleUniform(l.Radius),
			vol.ModelTransform(),
		))
		vol.Draw(c.Backend)
	}
}
