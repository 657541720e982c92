package events

import (
	"context"
	"encoding/json"
	"time"

	"job-service/internal/apperr"
	"job-service/internal/config"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const SubjectPrefix = "jobs."

type Type string

const (
	JobPublished Type = "job.published"
	JobPaused    Type = "job.paused"
	JobClosed    Type = "job.closed"
	JobDeleted   Type = "job.deleted"
	JobsExpired  Type = "jobs.expired"
)

// Event is the JSON payload published for lifecycle changes. JobID is unset
// for bulk events.
type Event struct {
	Type       Type       `json:"type"`
	JobID      *uuid.UUID `json:"job_id,omitempty"`
	CompanyID  *uuid.UUID `json:"company_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Count      int64      `json:"count,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Subject maps an event type onto the NATS subject it is sent on.
func Subject(t Type) string {
	return SubjectPrefix + string(t)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close()
}

type natsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// NewPublisher connects to NATS. With no URL configured it returns a
// publisher that drops every event.
func NewPublisher(logger *zap.Logger, cfg config.NATSConfig) (Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("events")

	if cfg.URL == "" {
		logger.Info("NATS_URL not set, lifecycle events disabled")
		return Noop{}, nil
	}

	opts := []nats.Option{
		nats.Timeout(cfg.ConnTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, apperr.Transient("connecting to NATS", err)
	}

	return &natsPublisher{
		conn:   conn,
		logger: logger,
	}, nil
}

func (p *natsPublisher) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	subject := Subject(e.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("subject", subject),
			zap.Error(err))
		return apperr.Transient("publishing to NATS", err)
	}

	p.logger.Debug("published event",
		zap.String("subject", subject),
		zap.Int("size", len(data)))
	return nil
}

func (p *natsPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() {}
