package broker

import (
	"aisbridge/tms/log"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection is a broker connection with one open channel, as the host
// application hands it to its plugins.
type Connection struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

func Dial(url string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "unable to open broker channel")
	}
	log.Debug("broker channel opened")
	return &Connection{conn: conn, Channel: ch}, nil
}

// NotifyClose delivers the error which closed the connection, if any.
func (c *Connection) NotifyClose() <-chan *amqp.Error {
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (c *Connection) Close() error {
	if err := c.Channel.Close(); err != nil && err != amqp.ErrClosed {
		log.Warn("closing broker channel: %v", err)
	}
	return c.conn.Close()
}
