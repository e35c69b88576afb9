// Package broker publishes CoT events to the host application's AMQP
// exchange.
package broker

import (
	"context"
	"strconv"
	"time"

	"aisbridge/tms/config"
	"aisbridge/tms/cot"
	"aisbridge/tms/log"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNoChannel = errors.New("no broker channel")

var trace = log.GetTracer("broker")

// Channel is the one capability the publisher needs from a broker
// connection. *amqp.Channel satisfies it.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Envelope is the message body understood by the CoT controller: the
// originating node and the serialized event.
type Envelope struct {
	UID string `json:"uid"`
	Cot string `json:"cot"`
}

// Publisher sends events to a fan-out exchange without a routing key.
// Publishing is fire-and-forget: no confirmation is awaited, nothing is
// retried.
type Publisher struct {
	channel    Channel
	exchange   string
	nodeID     string
	expiration string
}

func NewPublisher(channel Channel, cfg config.Config) *Publisher {
	return &Publisher{
		channel:    channel,
		exchange:   cfg.Exchange,
		nodeID:     cfg.NodeID,
		expiration: Expiration(cfg.TTL),
	}
}

// Expiration renders a TTL the way AMQP expects it: milliseconds as a
// decimal string. Zero means no expiration.
func Expiration(ttl time.Duration) string {
	if ttl <= 0 {
		return ""
	}
	return strconv.FormatInt(int64(ttl/time.Millisecond), 10)
}

// Body serializes the envelope for ev.
func (p *Publisher) Body(ev cot.Event) ([]byte, error) {
	doc, err := ev.XML()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to serialize event %v", ev.UID)
	}
	body, err := json.Marshal(Envelope{UID: p.nodeID, Cot: doc})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to serialize envelope of %v", ev.UID)
	}
	return body, nil
}

func (p *Publisher) Publish(ctxt context.Context, ev cot.Event) error {
	if p.channel == nil {
		return ErrNoChannel
	}
	body, err := p.Body(ev)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.Time,
		Expiration:  p.expiration,
		Body:        body,
	}
	trace.Logf("publishing to %v: %s", p.exchange, body)
	if err := p.channel.PublishWithContext(ctxt, p.exchange, "", false, false, msg); err != nil {
		return errors.Wrapf(err, "unable to publish %v to %v", ev.UID, p.exchange)
	}
	return nil
}
