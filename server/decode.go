package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rubenfonseca/fastimage"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"digitrec/preprocess"
)

type constError string

func (e constError) Error() string { return string(e) }

const (
	errBadRequest       = constError("bad request")
	errTooLarge         = constError("request too large")
	errUnsupportedMedia = constError("unsupported media type")
)

// PixelRequest is the JSON body of POST /predict and POST /normalize. Either
// Vector (already standardized network input) or a pixel buffer is given.
type PixelRequest struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Channels int       `json:"channels"`
	Pixels   []int     `json:"pixels"`
	Vector   []float64 `json:"vector,omitempty"`
}

func (p *PixelRequest) image() (preprocess.Image, error) {
	pix := make([]byte, len(p.Pixels))
	for i, v := range p.Pixels {
		if v < 0 || v > 255 {
			return preprocess.Image{}, errors.Wrapf(errBadRequest, "pixel %d out of range: %d", i, v)
		}
		pix[i] = byte(v)
	}
	return preprocess.ImageFromBytes(p.Width, p.Height, p.Channels, pix)
}

// imageDims sniffs the header for the image size without decoding it. Formats
// fastimage does not know fall back to the registered decoders.
func imageDims(data []byte) (int, int, error) {
	_, size, err := fastimage.DetectImageTypeFromReader(bytes.NewReader(data))
	if err == nil && size != nil {
		return int(size.Width), int(size.Height), nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errors.Wrap(errUnsupportedMedia, "unknown image format")
	}
	return cfg.Width, cfg.Height, nil
}

func (s *Server) readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, s.MaxUploadBytes+1))
	if err != nil {
		return nil, errors.Wrap(errBadRequest, err.Error())
	}
	if int64(len(data)) > s.MaxUploadBytes {
		return nil, errors.Wrapf(errTooLarge, "body exceeds %d bytes", s.MaxUploadBytes)
	}
	return data, nil
}

func (s *Server) decodeImage(data []byte) (image.Image, error) {
	w, h, err := imageDims(data)
	if err != nil {
		return nil, err
	}
	if w <= 0 || h <= 0 || w > s.MaxImageSide || h > s.MaxImageSide {
		return nil, errors.Wrapf(errBadRequest, "image is %dx%d, sides must be 1..%d", w, h, s.MaxImageSide)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errBadRequest, err.Error())
	}
	return img, nil
}

// payload is a decoded request: exactly one field is set.
type payload struct {
	pixels *preprocess.Image
	vector []float64
	image  image.Image
}

// readPayload accepts a JSON PixelRequest, a multipart form with an "image"
// file, or a raw image body.
func (s *Server) readPayload(w http.ResponseWriter, r *http.Request) (*payload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json":
		data, err := s.readBody(r)
		if err != nil {
			return nil, err
		}
		var req PixelRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, errors.Wrap(errBadRequest, fmt.Sprintf("json decode error: %v", err))
		}
		if len(req.Vector) > 0 {
			return &payload{vector: req.Vector}, nil
		}
		im, err := req.image()
		if err != nil {
			return nil, err
		}
		return &payload{pixels: &im}, nil

	case mediaType == "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
		if err := r.ParseMultipartForm(s.MaxUploadBytes); err != nil {
			return nil, errors.Wrap(errBadRequest, err.Error())
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.Wrap(errBadRequest, "missing image field")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, errors.Wrap(errBadRequest, err.Error())
		}
		img, err := s.decodeImage(data)
		if err != nil {
			return nil, err
		}
		return &payload{image: img}, nil

	case strings.HasPrefix(mediaType, "image/"), mediaType == "application/octet-stream":
		data, err := s.readBody(r)
		if err != nil {
			return nil, err
		}
		img, err := s.decodeImage(data)
		if err != nil {
			return nil, err
		}
		return &payload{image: img}, nil
	}
	return nil, errors.Wrapf(errUnsupportedMedia, "content type %q", mediaType)
}
