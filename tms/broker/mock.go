package broker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
)

type MockChannel struct {
	mock.Mock
}

func (c *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := c.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}
