package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/rotation/core/monitoring"
)

func TestNewSentryMonitorWithoutDSN(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestSentryMonitorTags(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@example.com/1",
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			events = append(events, e)
			return nil
		},
	})
	require.NoError(t, err)
	m := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("solver unreachable"), map[string]string{coremon.TagStage: "solve", coremon.TagBackend: "remote"})
	m.Flush(time.Second)

	require.Len(t, events, 1)
	assert.Equal(t, "solve", events[0].Tags["stage"])
	assert.Equal(t, "remote", events[0].Tags["backend"])
	assert.Equal(t, "rotation", events[0].Tags["module"])
}
