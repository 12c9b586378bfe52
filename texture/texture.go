// Package texture loads raster and high dynamic range images into backend
// textures.
package texture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/mdouchement/hdr"
	_ "github.com/mdouchement/hdr/codec/rgbe"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/der-antikeks/deferred/gpu"
)

type Texture struct {
	b      gpu.Backend
	handle gpu.Texture

	Width, Height int
	HDR           bool
}

// Load decodes the image file at path.
func Load(b gpu.Backend, path string) (*Texture, error) {
	// load file
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	t, err := Decode(b, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Decode reads any registered format. Radiance HDR images become float
// textures, everything else 8-bit RGBA.
func Decode(b gpu.Backend, r io.Reader) (*Texture, error) {
	im, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(b, im), nil
}

// FromImage uploads im.
func FromImage(b gpu.Backend, im image.Image) *Texture {
	bounds := im.Bounds()
	t := &Texture{b: b, Width: bounds.Dx(), Height: bounds.Dy()}

	if h, ok := im.(hdr.Image); ok {
		t.HDR = true
		pix := make([]float32, 0, t.Width*t.Height*4)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := h.HDRAt(x, y).HDRRGBA()
				pix = append(pix, float32(r), float32(g), float32(b), 1)
			}
		}
		t.handle = b.NewTexture(gpu.Image{Width: t.Width, Height: t.Height, Format: gpu.RGBA32F, PixF: pix})
		return t
	}

	// convert to rgba
	rgba, ok := im.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
		draw.Draw(rgba, rgba.Bounds(), im, bounds.Min, draw.Src)
	}
	t.handle = b.NewTexture(gpu.Image{Width: t.Width, Height: t.Height, Format: gpu.RGBA8, Pix8: rgba.Pix})
	return t
}

// Solid returns a 1x1 texture of c, used in place of missing files.
func Solid(b gpu.Backend, c color.Color) *Texture {
	im := image.NewRGBA(image.Rect(0, 0, 1, 1))
	im.Set(0, 0, c)
	return FromImage(b, im)
}

func (t *Texture) Handle() gpu.Texture { return t.handle }

// Bind binds the texture to unit and points the sampler name of p at it.
func (t *Texture) Bind(unit int, p gpu.Program, name string) {
	t.b.BindTexture(unit, t.handle)
	p.SetSampler(name, unit)
}

// Unbind clears unit.
func (t *Texture) Unbind(unit int) {
	t.b.BindTexture(unit, 0)
}

func (t *Texture) Delete() {
	if t.handle != 0 {
		t.b.DeleteTexture(t.handle)
		t.handle = 0
	}
}
