// Package mqtt publishes solved schedules to an MQTT broker: one retained
// message per day on {prefix}/{date} and a summary on {prefix}/summary.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/rotation/core/logger"
	"github.com/kilianp07/rotation/core/model"
	"github.com/kilianp07/rotation/core/schedule"
	infralogger "github.com/kilianp07/rotation/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// DayMessage is the payload published for one day.
type DayMessage struct {
	RunID    string `json:"run_id"`
	Date     string `json:"date"`
	Week     string `json:"week"`
	Children []int  `json:"children"`
	Total    int    `json:"total"`
	GroupA   int    `json:"group_a"`
}

// SummaryMessage is the payload published on the summary topic.
type SummaryMessage struct {
	RunID             string    `json:"run_id"`
	Status            string    `json:"status"`
	Objective         float64   `json:"objective"`
	WeeklyInteraction float64   `json:"weekly_interaction"`
	GenderBalance     float64   `json:"gender_balance"`
	MinAttendance     float64   `json:"min_attendance"`
	Days              []string  `json:"days"`
	Time              time.Time `json:"time"`
}

// Publisher publishes schedules.
type Publisher struct {
	cli     pahoClient
	prefix  string
	qos     byte
	retain  bool
	retries int
	backoff time.Duration
	log     logger.Logger
	now     func() time.Time
}

// NewPublisher connects to the configured broker.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := infralogger.New("mqtt-publisher")
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, token.Error())
	}
	return &Publisher{
		cli:     c,
		prefix:  cfg.TopicPrefix,
		qos:     cfg.QoS,
		retain:  *cfg.Retain,
		retries: cfg.MaxRetries,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:     log,
		now:     time.Now,
	}, nil
}

// DayTopic returns the topic of a day.
func (p *Publisher) DayTopic(date string) string { return p.prefix + "/" + date }

// SummaryTopic returns the summary topic.
func (p *Publisher) SummaryTopic() string { return p.prefix + "/summary" }

// PublishSchedule publishes every day of s then the summary.
func (p *Publisher) PublishSchedule(ctx context.Context, runID string, s *schedule.Schedule) error {
	days := make([]string, 0, len(s.Days))
	for _, d := range s.Days {
		date := d.Date.Format(model.DateLayout)
		msg := DayMessage{
			RunID:    runID,
			Date:     date,
			Week:     string(d.Week),
			Children: d.Children,
			Total:    d.Total,
			GroupA:   d.GroupA,
		}
		if err := p.publish(ctx, p.DayTopic(date), msg); err != nil {
			return err
		}
		days = append(days, date)
	}
	sum := SummaryMessage{
		RunID:             runID,
		Status:            string(s.Status),
		Objective:         s.Objective,
		WeeklyInteraction: s.WeeklyInteraction,
		GenderBalance:     s.GenderBalance,
		MinAttendance:     s.MinAttendance,
		Days:              days,
		Time:              p.now().UTC(),
	}
	if err := p.publish(ctx, p.SummaryTopic(), sum); err != nil {
		return err
	}
	p.log.Infof("published %d days of run %s under %s", len(days), runID, p.prefix)
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.backoff
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(p.retries)), ctx)
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			p.log.Warnf("publish %s attempt %d failed: %v", topic, attempt, err)
			return err
		}
		return nil
	}, policy)
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
