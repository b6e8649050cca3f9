package solver

import "github.com/kilianp07/rotation/core/factory"

var backends = factory.NewRegistry[Solver]()

// Reporter is implemented by backends able to publish search progress.
type Reporter interface {
	ReportTo(p ProgressPublisher)
}

// RegisterBackend adds a solver backend factory identified by name.
func RegisterBackend(name string, f factory.Factory[Solver]) error {
	return backends.Register(name, f)
}

// NewBackend instantiates the configured backend. Returned solvers are
// wrapped with Checked.
func NewBackend(cfg factory.ModuleConfig) (Solver, error) {
	return NewBackendWithProgress(cfg, nil)
}

// NewBackendWithProgress is NewBackend attaching p to backends implementing
// Reporter. Other backends ignore p.
func NewBackendWithProgress(cfg factory.ModuleConfig, p ProgressPublisher) (Solver, error) {
	s, err := backends.Create(cfg)
	if err != nil {
		return nil, err
	}
	if r, ok := s.(Reporter); ok && p != nil {
		r.ReportTo(p)
	}
	return Checked(s), nil
}

// Backends lists registered backend names.
func Backends() []string { return backends.Names() }
