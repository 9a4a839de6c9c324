package preprocess

import (
	"image"
	"image/color"

	"github.com/pkg/errors"

	"digitrec/nn"
)

// Image is an interleaved 8-bit pixel buffer with at least three channels
// (R, G, B, then anything else, which is ignored).
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// NewImage returns a white RGB image.
func NewImage(width, height int) Image {
	pix := make([]byte, 3*width*height)
	for i := range pix {
		pix[i] = 255
	}
	return Image{Width: width, Height: height, Channels: 3, Pix: pix}
}

// ImageFromBytes wraps pix without copying after checking its length.
func ImageFromBytes(width, height, channels int, pix []byte) (Image, error) {
	im := Image{Width: width, Height: height, Channels: channels, Pix: pix}
	return im, im.check()
}

func (im Image) check() error {
	if im.Width <= 0 || im.Height <= 0 {
		return errors.Wrapf(nn.ErrPrecondition, "image is %dx%d", im.Width, im.Height)
	}
	if im.Channels < 3 {
		return errors.Wrapf(nn.ErrPrecondition, "image has %d channels, need at least 3", im.Channels)
	}
	if len(im.Pix) != im.Width*im.Height*im.Channels {
		return errors.Wrapf(nn.ErrPrecondition, "image %dx%dx%d needs %d bytes, got %d",
			im.Width, im.Height, im.Channels, im.Width*im.Height*im.Channels, len(im.Pix))
	}
	return nil
}

// FromImage converts any image.Image into an RGB buffer. Transparent areas
// are composited over white, the background the canvas starts with.
func FromImage(src image.Image) Image {
	rect := src.Bounds()
	im := Image{Width: rect.Dx(), Height: rect.Dy(), Channels: 3, Pix: make([]byte, 3*rect.Dx()*rect.Dy())}
	for j := 0; j < im.Height; j++ {
		for i := 0; i < im.Width; i++ {
			r, g, b, a := src.At(i+rect.Min.X, j+rect.Min.Y).RGBA()
			bg := 0xffff - a
			off := (j*im.Width + i) * 3
			im.Pix[off+0] = uint8((r + bg) >> 8)
			im.Pix[off+1] = uint8((g + bg) >> 8)
			im.Pix[off+2] = uint8((b + bg) >> 8)
		}
	}
	return im
}

// AsImage returns an opaque *image.RGBA copy of im.
func (im Image) AsImage() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, im.Width, im.Height))
	for j := 0; j < im.Height; j++ {
		for i := 0; i < im.Width; i++ {
			c := im.GetRGB(i, j)
			dst.SetRGBA(i, j, color.RGBA{R: c[0], G: c[1], B: c[2], A: 255})
		}
	}
	return dst
}

// SetRGB sets pixel (i, j); out-of-range coordinates are ignored.
func (im Image) SetRGB(i, j int, c [3]uint8) {
	if i < 0 || i >= im.Width || j < 0 || j >= im.Height {
		return
	}
	off := (j*im.Width + i) * im.Channels
	copy(im.Pix[off:off+3], c[:])
}

func (im Image) GetRGB(i, j int) [3]uint8 {
	var c [3]uint8
	off := (j*im.Width + i) * im.Channels
	copy(c[:], im.Pix[off:off+3])
	return c
}

// FillRectangle paints [left,right)×[top,bottom).
func (im Image) FillRectangle(left, top, right, bottom int, c [3]uint8) {
	for i := left; i < right; i++ {
		for j := top; j < bottom; j++ {
			im.SetRGB(i, j, c)
		}
	}
}

// Ink returns 1 - mean(R,G,B)/255 per pixel, row-major.
func (im Image) Ink() []float64 {
	ink := make([]float64, im.Width*im.Height)
	for p := range ink {
		off := p * im.Channels
		sum := float64(im.Pix[off]) + float64(im.Pix[off+1]) + float64(im.Pix[off+2])
		ink[p] = 1 - sum/3/255
	}
	return ink
}
