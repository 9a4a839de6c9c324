package preprocess

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digitrec/nn"
)

var black = [3]uint8{0, 0, 0}

func squareAt(x, y, side int) Image {
	im := NewImage(28, 28)
	im.FillRectangle(x, y, x+side, y+side, black)
	return im
}

func TestNormalizeAllWhite(t *testing.T) {
	cfg := DefaultConfig()
	res, err := Normalize(NewImage(28, 28), cfg)
	require.NoError(t, err)
	require.Len(t, res.Standardized, 784)
	assert.True(t, res.Box.Empty())
	want := (0 - cfg.Mean) / cfg.Std
	for i, v := range res.Standardized {
		if v != want {
			t.Fatalf("standardized[%d] = %v, want %v", i, v, want)
		}
		if res.Normalized[i] != 0 {
			t.Fatalf("normalized[%d] = %v, want 0", i, res.Normalized[i])
		}
	}
}

func TestNormalizeTranslationInvariant(t *testing.T) {
	cfg := DefaultConfig()
	ref, err := Normalize(squareAt(0, 0, 4), cfg)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), ref.Box)
	assert.Equal(t, image.Rect(4, 4, 24, 24), ref.Placed)

	for _, p := range []image.Point{{13, 9}, {24, 24}, {24, 0}, {7, 20}} {
		got, err := Normalize(squareAt(p.X, p.Y, 4), cfg)
		require.NoError(t, err)
		assert.Equal(t, ref.Standardized, got.Standardized, "square at %v", p)
		assert.Equal(t, ref.Placed, got.Placed)
	}
}

func TestNormalizeCentersRescaledInk(t *testing.T) {
	res, err := Normalize(squareAt(3, 5, 4), DefaultConfig())
	require.NoError(t, err)
	for y := 0; y < 28; y++ {
		for x := 0; x < 28; x++ {
			v := res.Normalized[y*28+x]
			inside := x >= 4 && x < 24 && y >= 4 && y < 24
			if inside && math.Abs(v-1) > 1e-12 {
				t.Fatalf("ink at (%d,%d) = %v, want 1", x, y, v)
			}
			if !inside && v != 0 {
				t.Fatalf("ink at (%d,%d) = %v, want 0", x, y, v)
			}
		}
	}
}

func TestPlacement(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		box  image.Rectangle
		want image.Rectangle
	}{
		{image.Rect(0, 0, 4, 4), image.Rect(4, 4, 24, 24)},
		{image.Rect(5, 2, 7, 12), image.Rect(12, 4, 16, 24)},
		{image.Rect(0, 10, 20, 13), image.Rect(4, 13, 24, 16)},
		{image.Rect(3, 3, 4, 28), image.Rect(14, 4, 15, 24)},
		{image.Rect(0, 0, 1, 1), image.Rect(4, 4, 24, 24)},
	}
	for _, c := range cases {
		got := Placement(c.box, cfg)
		if got != c.want {
			t.Errorf("Placement(%v) = %v, want %v", c.box, got, c.want)
		}
		longer := max(got.Dx(), got.Dy())
		assert.Equal(t, cfg.TargetSize, longer)
	}
}

func TestBoundingBoxThreshold(t *testing.T) {
	im := NewImage(28, 28)
	im.SetRGB(2, 3, [3]uint8{250, 250, 250}) // ink 0.0196, below threshold
	im.SetRGB(10, 11, [3]uint8{249, 249, 249})
	im.SetRGB(15, 4, [3]uint8{0, 128, 255})
	box := BoundingBox(im.Ink(), 28, DefaultConfig().InkThreshold)
	assert.Equal(t, image.Rect(10, 4, 16, 12), box)
}

func TestNormalizePrecondition(t *testing.T) {
	cfg := DefaultConfig()
	bad := []Image{
		NewImage(27, 28),
		{Width: 28, Height: 28, Channels: 2, Pix: make([]byte, 28*28*2)},
		{Width: 28, Height: 28, Channels: 3, Pix: make([]byte, 10)},
	}
	for _, im := range bad {
		_, err := Normalize(im, cfg)
		if !errors.Is(err, nn.ErrPrecondition) {
			t.Errorf("%dx%dx%d: expected ErrPrecondition, got %v", im.Width, im.Height, im.Channels, err)
		}
	}
}

func TestNormalizeIgnoresExtraChannels(t *testing.T) {
	rgb := squareAt(6, 6, 5)
	pix := make([]byte, 0, 28*28*4)
	for p := 0; p < 28*28; p++ {
		pix = append(pix, rgb.Pix[p*3:p*3+3]...)
		pix = append(pix, 17)
	}
	rgba, err := ImageFromBytes(28, 28, 4, pix)
	require.NoError(t, err)

	a, err := Normalize(rgb, DefaultConfig())
	require.NoError(t, err)
	b, err := Normalize(rgba, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a.Standardized, b.Standardized)
}

func TestFromImageCompositesOverWhite(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{A: 255})
	im := FromImage(src)
	assert.Equal(t, [3]uint8{255, 255, 255}, im.GetRGB(0, 0))
	assert.Equal(t, [3]uint8{0, 0, 0}, im.GetRGB(1, 0))
}

func TestNormalizeImageResizes(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 56, 56))
	for y := 0; y < 56; y++ {
		for x := 0; x < 56; x++ {
			src.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}
	for y := 8; y < 16; y++ {
		for x := 20; x < 28; x++ {
			src.SetRGBA(x, y, color.RGBA{0, 0, 0, 255})
		}
	}
	assert.Equal(t, image.Rect(0, 0, 28, 28), Resize(src, 28).Bounds())

	res, err := NormalizeImage(src, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, res.Standardized, 784)
	assert.False(t, res.Box.Empty())
	assert.Equal(t, 20, max(res.Placed.Dx(), res.Placed.Dy()))
}
