package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/der-antikeks/deferred/gpu"
	"github.com/der-antikeks/deferred/gpu/soft"
)

func checker() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	im.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	im.Set(1, 0, color.NRGBA{0, 255, 0, 255})
	im.Set(0, 1, color.NRGBA{0, 0, 255, 255})
	im.Set(1, 1, color.NRGBA{255, 255, 255, 255})
	return im
}

func TestDecode_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, checker()))

	b := soft.New(4, 4)
	tex, err := Decode(b, &buf)
	require.NoError(t, err)
	assert.False(t, tex.HDR)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 2, tex.Height)

	c, ok := b.Texel(tex.Handle(), 1, 0)
	require.True(t, ok)
	assert.Equal(t, float32(0), c[0])
	assert.Equal(t, float32(1), c[1])
}

func TestDecode_Unknown(t *testing.T) {
	_, err := Decode(soft.New(4, 4), bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestFromImage_Offset(t *testing.T) {
	b := soft.New(4, 4)
	sub := checker().SubImage(image.Rect(1, 1, 2, 2))
	tex := FromImage(b, sub)
	require.Equal(t, 1, tex.Width)

	c, ok := b.Texel(tex.Handle(), 0, 0)
	require.True(t, ok)
	assert.Equal(t, mgl4(1, 1, 1, 1), c)
}

func mgl4(r, g, b, a float32) mgl32.Vec4 { return mgl32.Vec4{r, g, b, a} }

// recordingProgram remembers sampler assignments.
type recordingProgram struct {
	gpu.Program
	samplers map[string]int
}

func (p *recordingProgram) SetSampler(name string, unit int) { p.samplers[name] = unit }

func TestBind(t *testing.T) {
	b := soft.New(4, 4)
	tex := Solid(b, color.White)
	p := &recordingProgram{samplers: map[string]int{}}

	tex.Bind(3, p, "textureMap")
	assert.Equal(t, 3, p.samplers["textureMap"])

	tex.Unbind(3)
	h := tex.Handle()
	tex.Delete()
	_, _, ok := b.TextureSize(h)
	assert.False(t, ok)
	assert.NoError(t, b.Err())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(soft.New(4, 4), "does/not/exist.png")
	assert.Error(t, err)
}
