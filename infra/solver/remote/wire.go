package remote

import (
	"time"

	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/solver"
)

// SolvePath is the endpoint accepting solve requests.
const SolvePath = "/v1/solve"

// Request is the JSON body of a solve call.
type Request struct {
	Model   *milp.Model `json:"model"`
	Options WireOptions `json:"options"`
}

// WireOptions carries solver.Options with the time limit in seconds.
type WireOptions struct {
	Gap              float64 `json:"gap"`
	TimeLimitSeconds float64 `json:"time_limit_seconds"`
}

// Response is the JSON body answering a solve call. Values is set only when
// Status is optimal or feasible.
type Response struct {
	Status    milp.Status        `json:"status"`
	Objective float64            `json:"objective"`
	Values    map[string]float64 `json:"values,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// EncodeOptions converts options to their wire form.
func EncodeOptions(o solver.Options) WireOptions {
	return WireOptions{Gap: o.Gap, TimeLimitSeconds: o.TimeLimit.Seconds()}
}

// Options converts wire options back.
func (w WireOptions) Options() solver.Options {
	return solver.Options{Gap: w.Gap, TimeLimit: time.Duration(w.TimeLimitSeconds * float64(time.Second))}
}
