package utils

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idxImages(count, rows, cols int) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, []int32{idxImagesMagic, int32(count), int32(rows), int32(cols)})
	for i := 0; i < count*rows*cols; i++ {
		buf.WriteByte(byte(i % 256))
	}
	return buf.Bytes()
}

func TestReadIDXImages(t *testing.T) {
	images, err := ReadIDXImages(bytes.NewReader(idxImages(2, 2, 3)))
	require.NoError(t, err)
	assert.Equal(t, 2, images.Rows)
	assert.Equal(t, 3, images.Cols)
	require.Len(t, images.Pixels, 2)
	assert.Equal(t, []byte{6, 7, 8, 9, 10, 11}, images.Pixels[1])

	std := images.Standardized(0, 0, 1)
	assert.InDelta(t, 5.0/255, std[5], 1e-12)
}

func TestReadIDXLabels(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, []int32{idxLabelsMagic, 4})
	buf.Write([]byte{7, 2, 1, 0})
	labels, err := ReadIDXLabels(&buf)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 2, 1, 0}, labels)
}

func TestReadIDXBadMagic(t *testing.T) {
	_, err := ReadIDXLabels(bytes.NewReader(idxImages(1, 1, 1)))
	if err == nil {
		t.Fatal("expected invalid magic number error")
	}
	_, err = ReadIDXImages(bytes.NewReader(idxImages(3, 2, 2)[:20]))
	if err == nil {
		t.Fatal("expected error for truncated file")
	}
}

func TestOpenIDXGzip(t *testing.T) {
	dir := t.TempDir()
	raw := idxImages(1, 2, 2)

	plain := filepath.Join(dir, "images-idx3-ubyte")
	require.NoError(t, os.WriteFile(plain, raw, 0644))

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write(raw)
	require.NoError(t, zw.Close())
	packed := filepath.Join(dir, "images-idx3-ubyte.gz")
	require.NoError(t, os.WriteFile(packed, gz.Bytes(), 0644))

	for _, path := range []string{plain, packed} {
		rc, err := OpenIDX(path)
		require.NoError(t, err)
		images, err := ReadIDXImages(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, []byte{0, 1, 2, 3}, images.Pixels[0], path)
	}
}

func TestReadIDXHugeHeaderShortBody(t *testing.T) {
	var images bytes.Buffer
	binary.Write(&images, binary.BigEndian, []int32{idxImagesMagic, 2000000000, 28, 28})
	images.Write(make([]byte, 28*28+5))
	_, err := ReadIDXImages(&images)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var labels bytes.Buffer
	binary.Write(&labels, binary.BigEndian, []int32{idxLabelsMagic, 2000000000})
	labels.Write([]byte{1, 2, 3})
	_, err = ReadIDXLabels(&labels)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadIDXRejectsOversizedSide(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, []int32{idxImagesMagic, 1, maxIDXSide + 1, 28})
	_, err := ReadIDXImages(&buf)
	if err == nil {
		t.Fatal("expected error for oversized rows")
	}
}
