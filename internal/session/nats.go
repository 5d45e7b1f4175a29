package session

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ConnectNats dials the event bus; the token option is added when set.
func ConnectNats(cfg Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("idcard-service"),
	}
	if cfg.NatsToken != "" {
		opts = append(opts, nats.Token(cfg.NatsToken))
	}
	return nats.Connect(cfg.NatsURL, opts...)
}

// NatsNotifier relays session events through a NATS subject so every
// service instance delivers them to its local subscribers.
type NatsNotifier struct {
	conn    *nats.Conn
	subject string
	local   *Broadcaster
	sub     *nats.Subscription
	logger  *zap.SugaredLogger
}

func NewNatsNotifier(conn *nats.Conn, subject string, logger *zap.SugaredLogger) (*NatsNotifier, error) {
	n := &NatsNotifier{conn: conn, subject: subject, local: NewBroadcaster(), logger: logger}
	sub, err := conn.Subscribe(subject, n.receive)
	if err != nil {
		return nil, err
	}
	n.sub = sub
	return n, nil
}

func (n *NatsNotifier) receive(msg *nats.Msg) {
	var e Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		n.logger.Warnw("dropping malformed session event", "subject", msg.Subject, "err", err)
		return
	}
	n.local.Publish(e)
}

// Publish sends the event on the bus. If the bus rejects it the event is
// still delivered to this instance's subscribers.
func (n *NatsNotifier) Publish(e Event) {
	b, err := json.Marshal(e)
	if err == nil {
		err = n.conn.Publish(n.subject, b)
	}
	if err != nil {
		n.logger.Warnw("session event publish failed", "type", e.Type, "err", err)
		n.local.Publish(e)
	}
}

func (n *NatsNotifier) Subscribe(h EventHandler) func() {
	return n.local.Subscribe(h)
}

// Close drops the bus subscription; the connection is owned by the caller.
func (n *NatsNotifier) Close() error {
	return n.sub.Unsubscribe()
}
