package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/rotation/core/metrics"
	"github.com/kilianp07/rotation/core/model"
	"github.com/kilianp07/rotation/core/solver"
	"github.com/kilianp07/rotation/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes solve events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSolve writes a solve_run point.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solve_run").
		AddTag("run_id", ev.RunID).
		AddTag("backend", ev.Backend).
		AddTag("status", string(ev.Status)).
		AddField("objective", round3(ev.Objective)).
		AddField("vars", ev.Vars).
		AddField("constraints", ev.Constraints).
		AddField("attempts", ev.Attempts).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordAttendance writes one day_attendance point per day.
func (s *InfluxSink) RecordAttendance(ev coremetrics.AttendanceEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, d := range ev.Days {
		p := write.NewPointWithMeasurement("day_attendance").
			AddTag("run_id", ev.RunID).
			AddTag("date", dateKey(d.Date)).
			AddTag("week", d.Week).
			AddField("total", d.Total).
			AddField("group_a", d.GroupA).
			SetTime(d.Date)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordProgress writes a solve_progress point.
func (s *InfluxSink) RecordProgress(pr solver.Progress) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("solve_progress").
		AddTag("backend", pr.Backend).
		AddField("incumbent", round3(pr.Incumbent)).
		AddField("bound", round3(pr.Bound)).
		AddField("nodes", pr.Nodes).
		AddField("elapsed_ms", pr.Elapsed.Milliseconds()).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// dateKey formats a day as used in tags.
func dateKey(t time.Time) string { return t.Format(model.DateLayout) }
