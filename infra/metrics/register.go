package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Register registers c on reg. When an identical collector is already
// registered the existing one is returned so sinks can be rebuilt in-process.
func Register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		exist, ok := are.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("existing collector has wrong type %T", are.ExistingCollector)
		}
		return exist, nil
	}
	return c, nil
}
