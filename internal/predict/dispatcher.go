package predict

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
)

// Outcome is the result of one submission, carried back to the UI loop.
type Outcome struct {
	Seq      uint64
	Response *Response
	Err      error
}

// Dispatcher numbers submissions and keeps at most one in flight. Starting
// a new submission or invalidating cancels the previous one, and only the
// newest outcome is ever accepted.
//
// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	mu      sync.Mutex
	seq     uint64
	pending bool
	cancel  context.CancelFunc
}

// Next cancels any in-flight submission and returns the sequence number and
// context for a new one.
func (d *Dispatcher) Next(parent context.Context) (uint64, context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.release()
	d.seq++
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	d.pending = true
	return d.seq, ctx
}

// Invalidate cancels any in-flight submission so its outcome is rejected.
func (d *Dispatcher) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.release()
	d.seq++
}

// Accept reports whether the outcome numbered seq may update the display.
// It returns true at most once per submission.
func (d *Dispatcher) Accept(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.pending || seq != d.seq {
		return false
	}
	d.release()
	return true
}

// Pending reports whether a submission is in flight.
func (d *Dispatcher) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Dispatcher) Seq() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

func (d *Dispatcher) release() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pending = false
}

// Submit runs one prediction and packages the result. It blocks, so front
// ends call it off their UI loop.
func Submit(ctx context.Context, p Predictor, seq uint64, dataURL string) Outcome {
	resp, err := p.Predict(ctx, dataURL)
	return Outcome{Seq: seq, Response: resp, Err: err}
}

// Resolve turns an accepted outcome into result-line text. Failures are
// logged and yield ok == false, leaving the display untouched.
func Resolve(o Outcome, logger *log.Logger) (text string, ok bool) {
	if o.Err != nil {
		if errors.Is(o.Err, context.Canceled) {
			logger.Debug("prediction superseded", "seq", o.Seq)
		} else {
			logger.Error("prediction failed", "seq", o.Seq, "err", o.Err)
		}
		return "", false
	}

	text, err := o.Response.Text()
	if err != nil {
		status := 0
		if o.Response != nil {
			status = o.Response.Status
		}
		logger.Error("unusable prediction reply", "seq", o.Seq, "status", status, "err", err)
		return "", false
	}
	return text, true
}
