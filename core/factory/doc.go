// Package factory provides the generic registry used to pick module
// implementations (solver backends and metrics sinks) from
// configuration. A module is identified by a type string and a map of raw
// settings that its factory decodes with Decode.
//
//	reg := factory.NewRegistry[solver.Solver]()
//	reg.Register("remote", func(conf map[string]any) (solver.Solver, error) {
//	    var c remote.Config
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return remote.New(c, nil, nil)
//	})
//	s, err := reg.Create(factory.ModuleConfig{Type: "remote", Conf: map[string]any{"url": "http://solver:8080"}})
package factory
