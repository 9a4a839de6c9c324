package utils

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

const (
	idxImagesMagic = 2051
	idxLabelsMagic = 2049

	// maxIDXSide bounds the rows and cols an image header may declare.
	maxIDXSide = 4096
)

// IDXImages is an MNIST image file: Count images of Rows×Cols bytes.
type IDXImages struct {
	Rows, Cols int
	Pixels     [][]byte
}

// Standardized returns image i scaled to [0,1] then shifted by mean and
// divided by std, the input the network was trained on.
func (im *IDXImages) Standardized(i int, mean, std float64) []float64 {
	out := make([]float64, len(im.Pixels[i]))
	for j, b := range im.Pixels[i] {
		out[j] = (float64(b)/255.0 - mean) / std
	}
	return out
}

type idxFile struct {
	io.Reader
	closers []io.Closer
}

func (f *idxFile) Close() error {
	var first error
	for i := len(f.closers) - 1; i >= 0; i-- {
		if err := f.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenIDX opens an IDX file, transparently un-gzipping it when the content
// starts with the gzip magic bytes.
func OpenIDX(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open IDX file")
	}
	br := bufio.NewReader(f)
	head, err := br.Peek(2)
	if err == nil && head[0] == 0x1f && head[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "gzip %s", path)
		}
		return &idxFile{Reader: zr, closers: []io.Closer{f, zr}}, nil
	}
	return &idxFile{Reader: br, closers: []io.Closer{f}}, nil
}

func readHeader(r io.Reader, magic int32, dims int) ([]int32, error) {
	var got int32
	if err := binary.Read(r, binary.BigEndian, &got); err != nil {
		return nil, errors.Wrap(err, "failed to read magic number")
	}
	if got != magic {
		return nil, errors.Errorf("invalid magic number: %d, want %d", got, magic)
	}
	out := make([]int32, dims)
	if err := binary.Read(r, binary.BigEndian, out); err != nil {
		return nil, errors.Wrap(err, "failed to read dimensions")
	}
	for i, d := range out {
		if d < 0 {
			return nil, errors.Errorf("negative dimension %d: %d", i, d)
		}
	}
	return out, nil
}

// ReadIDXImages reads an idx3-ubyte image file.
func ReadIDXImages(r io.Reader) (*IDXImages, error) {
	dims, err := readHeader(r, idxImagesMagic, 3)
	if err != nil {
		return nil, err
	}
	count, rows, cols := int(dims[0]), int(dims[1]), int(dims[2])
	if rows > maxIDXSide || cols > maxIDXSide {
		return nil, errors.Errorf("image size %dx%d exceeds %d", rows, cols, maxIDXSide)
	}
	// The header count is not trusted for allocation; images are appended
	// only once their bytes have been read.
	images := &IDXImages{Rows: rows, Cols: cols}
	for i := 0; i < count; i++ {
		buf := make([]byte, rows*cols)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrapf(err, "image %d of %d", i, count)
		}
		images.Pixels = append(images.Pixels, buf)
	}
	return images, nil
}

// ReadIDXLabels reads an idx1-ubyte label file.
func ReadIDXLabels(r io.Reader) ([]int, error) {
	dims, err := readHeader(r, idxLabelsMagic, 1)
	if err != nil {
		return nil, err
	}
	want := int64(dims[0])
	buf, err := io.ReadAll(io.LimitReader(r, want))
	if err != nil {
		return nil, errors.Wrap(err, "labels")
	}
	if int64(len(buf)) != want {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "labels: read %d of %d", len(buf), want)
	}
	labels := make([]int, len(buf))
	for i, b := range buf {
		labels[i] = int(b)
	}
	return labels, nil
}
