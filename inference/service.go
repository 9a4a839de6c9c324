// Package inference owns the network that serves predictions and turns
// drawings into classified digits.
package inference

import (
	"image"
	"time"

	"github.com/pkg/errors"
	sync "github.com/sasha-s/go-deadlock"

	"digitrec/nn"
	"digitrec/preprocess"
	"digitrec/utils"
)

// DefaultTopK is the length of the ranked list attached to each output.
const DefaultTopK = 5

// Output is a classified drawing.
type Output struct {
	nn.Prediction
	Top        []nn.Ranked     `json:"top"`
	Normalized []float64       `json:"normalized,omitempty"`
	Box        image.Rectangle `json:"box"`
}

// ModelInfo describes the network currently served.
type ModelInfo struct {
	Topology   []int     `json:"topology"`
	ParamCount int       `json:"param_count"`
	Source     string    `json:"source,omitempty"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// Service holds the current bound network. Networks are never mutated once
// served; Swap replaces the reference.
type Service struct {
	cfg preprocess.Config

	mu       sync.RWMutex
	topK     int
	net      *nn.Network
	source   string
	loadedAt time.Time
}

// NewService returns a service with no network. Predictions fail with
// nn.ErrNotBound until Swap or Reload succeeds.
func NewService(cfg preprocess.Config) *Service {
	return &Service{cfg: cfg, topK: DefaultTopK}
}

// SetTopK changes the length of Output.Top.
func (s *Service) SetTopK(k int) {
	s.mu.Lock()
	s.topK = k
	s.mu.Unlock()
}

// Config returns the preprocessing settings.
func (s *Service) Config() preprocess.Config {
	return s.cfg
}

func (s *Service) check(net *nn.Network) error {
	if net == nil || !net.Bound() {
		return nn.ErrNotBound
	}
	if want := s.cfg.GridSize * s.cfg.GridSize; net.InputDim() != want {
		return errors.Wrapf(nn.ErrInvalidTopology, "network reads %d inputs, images give %d", net.InputDim(), want)
	}
	if net.OutputDim() != nn.Classes {
		return errors.Wrapf(nn.ErrShapeMismatch, "network has %d outputs, want %d", net.OutputDim(), nn.Classes)
	}
	return nil
}

// Swap validates net and makes it the served network. source is a label for
// ModelInfo.
func (s *Service) Swap(net *nn.Network, source string) error {
	if err := s.check(net); err != nil {
		return err
	}
	s.mu.Lock()
	s.net = net
	s.source = source
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Reload builds and binds a fresh network from cfg and swaps it in. The
// current network keeps serving if anything fails.
func (s *Service) Reload(cfg *utils.Config) (utils.ParseReport, error) {
	net, report, err := LoadNetwork(cfg)
	if err != nil {
		return report, err
	}
	return report, s.Swap(net, cfg.WeightsPath)
}

func (s *Service) current() (*nn.Network, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.net == nil {
		return nil, 0, nn.ErrNotBound
	}
	return s.net, s.topK, nil
}

// Info describes the served network.
func (s *Service) Info() (ModelInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.net == nil {
		return ModelInfo{}, nn.ErrNotBound
	}
	return ModelInfo{
		Topology:   s.net.Topology(),
		ParamCount: s.net.ParamCount(),
		Source:     s.source,
		LoadedAt:   s.loadedAt,
	}, nil
}

// PredictVector classifies an already standardized input vector.
func (s *Service) PredictVector(x []float64) (*Output, error) {
	net, topK, err := s.current()
	if err != nil {
		return nil, err
	}
	p, err := net.Classify(x)
	if err != nil {
		return nil, err
	}
	return &Output{Prediction: p, Top: nn.TopK(p.Probabilities, topK)}, nil
}

func (s *Service) classify(res *preprocess.Result) (*Output, error) {
	out, err := s.PredictVector(res.Standardized)
	if err != nil {
		return nil, err
	}
	out.Normalized = res.Normalized
	out.Box = res.Box
	return out, nil
}

// Predict normalizes a grid-sized drawing and classifies it.
func (s *Service) Predict(img preprocess.Image) (*Output, error) {
	if _, _, err := s.current(); err != nil {
		return nil, err
	}
	res, err := preprocess.Normalize(img, s.cfg)
	if err != nil {
		return nil, err
	}
	return s.classify(res)
}

// PredictImage resizes an arbitrary image to the grid, then behaves as Predict.
func (s *Service) PredictImage(src image.Image) (*Output, error) {
	if _, _, err := s.current(); err != nil {
		return nil, err
	}
	res, err := preprocess.NormalizeImage(src, s.cfg)
	if err != nil {
		return nil, err
	}
	return s.classify(res)
}

// Preview returns the normalized grid without classifying. It works with no
// network loaded.
func (s *Service) Preview(src image.Image) (*preprocess.Result, error) {
	return preprocess.NormalizeImage(src, s.cfg)
}
