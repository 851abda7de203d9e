// Package server is the classifier HTTP service behind the pad's /predict
// endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/san-kum/aksharpad/internal/applog"
	"github.com/san-kum/aksharpad/internal/classify"
	"github.com/san-kum/aksharpad/internal/predict"
	"github.com/san-kum/aksharpad/internal/surface"
)

const (
	maxBody = 8 << 20

	// TopN is how many candidates a reply carries.
	TopN = 3

	// DefaultMaxSide bounds each side of a submitted image in pixels.
	DefaultMaxSide = 2048

	msgNoModel = "Model not loaded"
	msgNoImage = "No image received"
	msgBadImg  = "Invalid image"
	msgBusy    = "Server busy"
)

type Config struct {
	InputSize   int
	MaxInflight int64
	MaxSide     int
}

type Server struct {
	model   classify.Model
	size    int
	maxSide int
	sem     *semaphore.Weighted
	log     *log.Logger
	mux     *http.ServeMux
	newID   func() string
}

// New builds a server around m. A nil model is allowed: /predict then
// answers 500 the way the service does when its weights failed to load.
func New(m classify.Model, cfg Config, logger *log.Logger) *Server {
	if cfg.InputSize <= 0 {
		cfg.InputSize = classify.DefaultInputSize
	}
	if m != nil {
		cfg.InputSize = m.InputSize()
	}
	if cfg.MaxInflight <= 0 {
		cfg.MaxInflight = 4
	}
	if cfg.MaxSide <= 0 {
		cfg.MaxSide = DefaultMaxSide
	}
	if logger == nil {
		logger = applog.Discard()
	}

	s := &Server{
		model:   m,
		size:    cfg.InputSize,
		maxSide: cfg.MaxSide,
		sem:     semaphore.NewWeighted(cfg.MaxInflight),
		log:     logger.WithPrefix("server"),
		mux:     http.NewServeMux(),
		newID:   func() string { return uuid.NewString() },
	}
	s.mux.HandleFunc("/predict", s.handlePredict)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests for up to five seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", ln.Addr().String(), "classes", s.classes())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) classes() int {
	if s.model == nil {
		return 0
	}
	return len(s.model.Labels())
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := s.newID()
	logger := s.log.With("req", id)
	w.Header().Set("X-Request-ID", id)
	start := time.Now()

	if s.model == nil {
		logger.Warn("predict without model")
		s.writeError(w, http.StatusInternalServerError, msgNoModel)
		return
	}

	var req predict.Request
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil || req.Image == "" {
		logger.Debug("rejected request", "err", err)
		s.writeError(w, http.StatusBadRequest, msgNoImage)
		return
	}

	if err := s.sem.Acquire(r.Context(), 1); err != nil {
		logger.Warn("request abandoned while queued", "err", err)
		s.writeError(w, http.StatusServiceUnavailable, msgBusy)
		return
	}
	img, err := surface.DecodeDataURLLimit(req.Image, s.maxSide)
	if err != nil {
		s.sem.Release(1)
		logger.Debug("rejected image", "err", err)
		s.writeError(w, http.StatusBadRequest, msgBadImg)
		return
	}
	pred, err := classify.Predict(s.model, classify.Preprocess(img, s.size, true), TopN)
	s.sem.Release(1)
	if err != nil {
		logger.Error("inference failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := predict.Response{
		Prediction: pred.Label,
		Confidence: predict.Confidence(classify.FormatConfidence(pred.Confidence)),
	}
	for _, c := range pred.Top {
		resp.Top = append(resp.Top, predict.Candidate{
			Label:      c.Label,
			Confidence: predict.Confidence(classify.FormatConfidence(c.Score)),
		})
	}

	logger.Info("predicted", "label", pred.Label, "confidence", resp.Confidence, "elapsed", time.Since(start))
	s.writeJSON(w, http.StatusOK, resp)
}

type health struct {
	Status  string `json:"status"`
	Classes int    `json:"classes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	status := "ok"
	if s.model == nil {
		status = "no model"
	}
	s.writeJSON(w, http.StatusOK, health{Status: status, Classes: s.classes()})
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, predict.Response{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("write reply", "err", err)
	}
}
