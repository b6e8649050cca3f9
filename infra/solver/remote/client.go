// Package remote solves models by delegating to an HTTP solve service, such
// as the one exposed by `rotation serve`.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/rotation/core/factory"
	"github.com/kilianp07/rotation/core/logger"
	"github.com/kilianp07/rotation/core/milp"
	"github.com/kilianp07/rotation/core/solver"
	infralogger "github.com/kilianp07/rotation/infra/logger"
)

// Name identifies the backend in configuration.
const Name = "remote"

// Config locates the solve service.
type Config struct {
	URL string `json:"url"`
	// GraceSeconds is added to the solve time limit to form the request
	// deadline.
	GraceSeconds int `json:"grace_seconds"`
}

// Client implements solver.Solver over HTTP.
type Client struct {
	base  string
	grace time.Duration
	http  *http.Client
	log   logger.Logger
}

// New validates cfg and returns a Client. A nil hc uses a default client.
func New(cfg Config, hc *http.Client, log logger.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote solver: url required")
	}
	if cfg.GraceSeconds <= 0 {
		cfg.GraceSeconds = 30
	}
	if hc == nil {
		hc = &http.Client{}
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	return &Client{
		base:  strings.TrimRight(cfg.URL, "/"),
		grace: time.Duration(cfg.GraceSeconds) * time.Second,
		http:  hc,
		log:   log,
	}, nil
}

func init() {
	_ = solver.RegisterBackend(Name, func(conf map[string]any) (solver.Solver, error) {
		var cfg Config
		if err := factory.Decode(conf, &cfg); err != nil {
			return nil, err
		}
		return New(cfg, nil, infralogger.New("remote-solver"))
	})
}

// Solve posts the model and waits for the answer.
func (c *Client) Solve(ctx context.Context, m *milp.Model, opts solver.Options) (milp.Solution, error) {
	body, err := json.Marshal(Request{Model: m, Options: EncodeOptions(opts)})
	if err != nil {
		return milp.Solution{}, fmt.Errorf("encode request: %w", err)
	}
	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit+c.grace)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+SolvePath, bytes.NewReader(body))
	if err != nil {
		return milp.Solution{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Debugf("posting model %s (%d vars) to %s", m.Name, len(m.Vars), c.base)
	resp, err := c.http.Do(req)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return milp.Solution{}, fmt.Errorf("%w: %w", solver.ErrTimeout, err)
		case errors.Is(ctx.Err(), context.Canceled):
			return milp.Solution{}, ctx.Err()
		}
		return milp.Solution{}, fmt.Errorf("%w: %w", solver.ErrUnreachable, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warnf("close response body: %v", cerr)
		}
	}()

	if resp.StatusCode >= 500 {
		return milp.Solution{}, fmt.Errorf("%w: status %d", solver.ErrUnreachable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return milp.Solution{}, fmt.Errorf("remote solver rejected model: status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return milp.Solution{}, fmt.Errorf("decode response: %w", err)
	}
	switch out.Status {
	case milp.StatusOptimal, milp.StatusFeasible:
		return milp.Solution{Status: out.Status, Objective: out.Objective, Values: out.Values}, nil
	case milp.StatusInfeasible:
		return milp.Solution{}, fmt.Errorf("%w: %s", solver.ErrInfeasible, out.Message)
	case milp.StatusTimeout:
		return milp.Solution{}, fmt.Errorf("%w: %s", solver.ErrTimeout, out.Message)
	default:
		return milp.Solution{}, fmt.Errorf("remote solver failed (status %q): %s", out.Status, out.Message)
	}
}
