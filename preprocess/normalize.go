package preprocess

import (
	"image"
	"image/draw"
	"math"

	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"

	"digitrec/nn"
)

// Config holds the grid geometry and dataset statistics the weights were
// trained with.
type Config struct {
	GridSize     int
	TargetSize   int
	InkThreshold float64
	Mean         float64
	Std          float64
}

// DefaultConfig returns the MNIST settings.
func DefaultConfig() Config {
	return Config{
		GridSize:     28,
		TargetSize:   20,
		InkThreshold: 0.02,
		Mean:         0.1307,
		Std:          0.3081,
	}
}

// Result is the output of Normalize. Box is the ink bounding box in the input
// and Placed the rectangle the rescaled crop occupies on the canvas; both are
// empty when the input had no ink.
type Result struct {
	Normalized   []float64       `json:"normalized"`
	Standardized []float64       `json:"standardized"`
	Box          image.Rectangle `json:"box"`
	Placed       image.Rectangle `json:"placed"`
}

// roundHalfUp rounds .5 toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// BoundingBox returns the smallest rectangle holding every cell of a
// size×size ink grid whose value exceeds threshold, or an empty rectangle.
func BoundingBox(ink []float64, size int, threshold float64) image.Rectangle {
	minX, minY, maxX, maxY := size, size, -1, -1
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if ink[y*size+x] <= threshold {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Placement returns where a box is pasted on the canvas: its longer side is
// scaled to cfg.TargetSize, the shorter one keeps the aspect ratio (at least
// one pixel), and the result is centered.
func Placement(box image.Rectangle, cfg Config) image.Rectangle {
	w, h := box.Dx(), box.Dy()
	scale := float64(cfg.TargetSize) / float64(max(w, h))
	dw := max(1, roundHalfUp(float64(w)*scale))
	dh := max(1, roundHalfUp(float64(h)*scale))
	ox := roundHalfUp(float64(cfg.GridSize-dw) / 2)
	oy := roundHalfUp(float64(cfg.GridSize-dh) / 2)
	return image.Rect(ox, oy, ox+dw, oy+dh)
}

// Normalize turns a GridSize×GridSize drawing into network input: the ink is
// cropped to its bounding box, rescaled bilinearly into the center of a white
// canvas, converted back to ink and standardized with cfg.Mean and cfg.Std.
func Normalize(img Image, cfg Config) (*Result, error) {
	if err := img.check(); err != nil {
		return nil, err
	}
	if img.Width != cfg.GridSize || img.Height != cfg.GridSize {
		return nil, errors.Wrapf(nn.ErrPrecondition, "image is %dx%d, want %dx%d",
			img.Width, img.Height, cfg.GridSize, cfg.GridSize)
	}

	res := &Result{}
	ink := img.Ink()
	res.Box = BoundingBox(ink, cfg.GridSize, cfg.InkThreshold)
	if !res.Box.Empty() {
		res.Placed = Placement(res.Box, cfg)
		canvas := image.NewRGBA(image.Rect(0, 0, cfg.GridSize, cfg.GridSize))
		draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
		xdraw.BiLinear.Scale(canvas, res.Placed, img.AsImage(), res.Box, xdraw.Src, nil)
		ink = FromImage(canvas).Ink()
	}

	res.Normalized = ink
	res.Standardized = make([]float64, len(ink))
	for i, v := range ink {
		res.Standardized[i] = (v - cfg.Mean) / cfg.Std
	}
	return res, nil
}

// Resize stretches src onto a white size×size canvas.
func Resize(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// NormalizeImage resizes an arbitrary image to the grid and normalizes it.
func NormalizeImage(src image.Image, cfg Config) (*Result, error) {
	if src.Bounds().Empty() {
		return nil, errors.Wrap(nn.ErrPrecondition, "empty image")
	}
	var grid image.Image = src
	if b := src.Bounds(); b.Dx() != cfg.GridSize || b.Dy() != cfg.GridSize {
		grid = Resize(src, cfg.GridSize)
	}
	return Normalize(FromImage(grid), cfg)
}
