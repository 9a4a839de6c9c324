// Package server exposes an inference.Service over HTTP.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"digitrec/inference"
	"digitrec/preprocess"
)

const (
	defaultMaxUploadBytes = 8 << 20
	defaultMaxImageSide   = 4096
)

// Server routes HTTP requests to an inference service.
type Server struct {
	svc    *inference.Service
	Router *mux.Router

	MaxUploadBytes int64
	MaxImageSide   int
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type normalizeResponse struct {
	*preprocess.Result
	Grid [][]float64 `json:"grid"`
}

func New(svc *inference.Service) *Server {
	s := &Server{
		svc:            svc,
		Router:         mux.NewRouter(),
		MaxUploadBytes: defaultMaxUploadBytes,
		MaxImageSide:   defaultMaxImageSide,
	}
	s.Router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.Router.HandleFunc("/model", s.handleModel).Methods("GET")
	s.Router.HandleFunc("/predict", s.handlePredict).Methods("POST")
	s.Router.HandleFunc("/normalize", s.handleNormalize).Methods("POST")
	return s
}

// Handler returns the router wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	return requestLogger(cors(s.Router))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := s.svc.Info()
	JsonResponse(w, healthResponse{Status: "ok", ModelLoaded: err == nil})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Info()
	if err != nil {
		writeError(w, r, err)
		return
	}
	JsonResponse(w, info)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	p, err := s.readPayload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var out *inference.Output
	switch {
	case p.vector != nil:
		out, err = s.svc.PredictVector(p.vector)
	case p.pixels != nil:
		out, err = s.svc.Predict(*p.pixels)
	default:
		out, err = s.svc.PredictImage(p.image)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	JsonResponse(w, out)
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	p, err := s.readPayload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cfg := s.svc.Config()
	var res *preprocess.Result
	switch {
	case p.vector != nil:
		writeError(w, r, errors.Wrap(errBadRequest, "normalize needs pixels or an image"))
		return
	case p.pixels != nil:
		res, err = preprocess.Normalize(*p.pixels, cfg)
	default:
		res, err = s.svc.Preview(p.image)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	grid := make([][]float64, cfg.GridSize)
	for y := range grid {
		grid[y] = res.Normalized[y*cfg.GridSize : (y+1)*cfg.GridSize]
	}
	JsonResponse(w, normalizeResponse{Result: res, Grid: grid})
}
