// Package session ties a drawing surface to a predictor. It is the state
// both front-ends share: the stroke, the in-flight submission and the
// result line.
//
// A Session is owned by one UI loop and is not safe for concurrent use;
// only the function returned by Submit may run elsewhere.
package session

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/san-kum/aksharpad/internal/applog"
	"github.com/san-kum/aksharpad/internal/predict"
	"github.com/san-kum/aksharpad/internal/surface"
)

type Session struct {
	pad       *surface.Surface
	predictor predict.Predictor
	dispatch  predict.Dispatcher
	result    string
	log       *log.Logger
}

func New(pad *surface.Surface, p predict.Predictor, logger *log.Logger) *Session {
	if pad == nil {
		pad = surface.New(0, 0)
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Session{
		pad:       pad,
		predictor: p,
		result:    predict.BaseText,
		log:       logger,
	}
}

func (s *Session) Surface() *surface.Surface { return s.pad }
func (s *Session) Result() string            { return s.result }
func (s *Session) Pending() bool             { return s.dispatch.Pending() }

// Press starts a stroke. Nothing is drawn until the pointer moves.
func (s *Session) Press() {
	s.pad.Begin()
}

// Move extends the stroke. Moving off the pad ends it, and a stroke is
// not resumed on re-entry until the next press.
func (s *Session) Move(x, y float64, inside bool) bool {
	if !s.pad.Down() {
		return false
	}
	if !inside {
		s.pad.End()
		return false
	}
	return s.pad.Paint(x, y)
}

func (s *Session) Release() {
	s.pad.End()
}

// Clear blanks the pad, resets the result line and drops any reply still
// in flight.
func (s *Session) Clear() {
	s.pad.Clear()
	s.dispatch.Invalidate()
	s.result = predict.BaseText
}

// Submit snapshots the pad and returns the exchange to run off the UI
// loop. It returns nil when there is no predictor or the snapshot cannot
// be encoded.
func (s *Session) Submit(ctx context.Context) func() predict.Outcome {
	if s.predictor == nil {
		s.log.Warn("no predictor configured")
		return nil
	}
	url, err := s.pad.DataURL()
	if err != nil {
		s.log.Error("encode canvas", "err", err)
		return nil
	}
	seq, rctx := s.dispatch.Next(ctx)
	p := s.predictor
	s.log.Debug("submitting", "seq", seq, "bytes", len(url))
	return func() predict.Outcome {
		return predict.Submit(rctx, p, seq, url)
	}
}

// Apply folds an outcome into the result line. Stale outcomes and failures
// leave it unchanged; Apply reports whether it changed.
func (s *Session) Apply(o predict.Outcome) bool {
	if !s.dispatch.Accept(o.Seq) {
		s.log.Debug("discarded stale outcome", "seq", o.Seq)
		return false
	}
	text, ok := predict.Resolve(o, s.log)
	if !ok {
		return false
	}
	s.result = text
	return true
}

// Close cancels any submission still in flight.
func (s *Session) Close() {
	s.dispatch.Invalidate()
}
