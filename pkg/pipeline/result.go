package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout/mapper"
)

// Status classifies the outcome of laying out one view.
type Status string

// Statuses.
const (
	StatusOK           Status = "ok"
	StatusEngineFailed Status = "engine_failed"
	StatusParseFailed  Status = "parse_failed"
	StatusInvalid      Status = "invalid"
	StatusCanceled     Status = "canceled"
	StatusFailed       Status = "failed"
)

// Classify returns the status for the error a view run ended with.
func Classify(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	case errors.IsEngine(err):
		return StatusEngineFailed
	case errors.IsGeometry(err):
		return StatusParseFailed
	case errors.IsInput(err):
		return StatusInvalid
	default:
		return StatusFailed
	}
}

// ViewResult reports the layout run of one view.
type ViewResult struct {
	Key    string `json:"key"`
	RunID  string `json:"run_id"`
	Status Status `json:"status"`

	// Err is the error the run ended with; Error and Code are its
	// serializable form.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`

	// Graph size
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
	Clusters int `json:"clusters"`

	CacheHit bool          `json:"cache_hit"`
	Duration time.Duration `json:"duration_ns"`

	// Placement is what was written onto the view. Nil unless the run
	// succeeded on a non-empty view.
	Placement *mapper.Placement `json:"placement,omitempty"`
}

// OK reports whether the view was laid out.
func (r *ViewResult) OK() bool { return r.Status == StatusOK }

func (r *ViewResult) finish(err error) {
	r.Status = Classify(err)
	r.Err = err
	if err != nil {
		r.Error = err.Error()
		r.Code = string(errors.GetCode(err))
	}
}

// Failed returns the results that did not succeed.
func Failed(results []*ViewResult) []*ViewResult {
	var out []*ViewResult
	for _, r := range results {
		if r != nil && !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
