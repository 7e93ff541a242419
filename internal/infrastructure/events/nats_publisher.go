package events

import (
	"context"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/riskibarqy/nfl-pickem/internal/platform/logging"
	"github.com/riskibarqy/nfl-pickem/internal/usecase"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultSubjectPrefix = "nflpickem"

	subjectGameCompleted = "game.completed"
	subjectPickSubmitted = "pick.submitted"

	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// msgPublisher is the slice of *nats.Conn the publisher needs.
type msgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NATSPublisher publishes domain events as JSON on core NATS subjects.
type NATSPublisher struct {
	conn   msgPublisher
	close  func()
	prefix string
	logger *logging.Logger
}

var _ usecase.EventPublisher = (*NATSPublisher)(nil)

// Connect dials NATS with unlimited reconnects and returns a publisher bound to it.
func Connect(url, subjectPrefix string, logger *logging.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("events.nats")

	nc, err := nats.Connect(url,
		nats.Name("nfl-pickem"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("nats error", "error", err)
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "connect to nats")
	}

	p := newNATSPublisher(nc, subjectPrefix, logger)
	p.close = func() {
		if err := nc.Drain(); err != nil {
			nc.Close()
		}
	}
	return p, nil
}

func newNATSPublisher(conn msgPublisher, subjectPrefix string, logger *logging.Logger) *NATSPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	prefix := strings.Trim(strings.TrimSpace(subjectPrefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}
}

func (p *NATSPublisher) Subject(name string) string {
	return p.prefix + "." + name
}

func (p *NATSPublisher) PublishGameCompleted(ctx context.Context, event usecase.GameCompletedEvent) error {
	return p.publish(ctx, subjectGameCompleted, "game:"+event.GameID, event)
}

func (p *NATSPublisher) PublishPickSubmitted(ctx context.Context, event usecase.PickSubmittedEvent) error {
	return p.publish(ctx, subjectPickSubmitted, "", event)
}

// Close drains the underlying connection.
func (p *NATSPublisher) Close() {
	if p.close != nil {
		p.close()
	}
}

// publish sends payload on prefix.name. A non-empty msgID is used for
// JetStream de-duplication; otherwise a random one is generated.
func (p *NATSPublisher) publish(ctx context.Context, name, msgID string, payload any) error {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "marshal %s event", name)
	}
	if msgID == "" {
		msgID = uuid.NewString()
	}

	msg := nats.NewMsg(p.Subject(name))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, msgID)
	msg.Header.Set("Content-Type", "application/json")
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		msg.Header.Set("Trace-Id", spanCtx.TraceID().String())
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		p.logger.WarnContext(ctx, "publish event failed", "subject", msg.Subject, "error", err)
		return errors.Wrapf(err, "publish %s", msg.Subject)
	}
	p.logger.DebugContext(ctx, "event published", "subject", msg.Subject, "msg_id", msgID)
	return nil
}
