package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrTopicRequired is returned when the topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
	// ErrGroupRequired is returned by drivers that cannot consume without a group.
	ErrGroupRequired = errors.New("messaging: consumer group is required")
	// ErrClosed is returned after Close.
	ErrClosed = io.ErrClosedPipe
)

// Messaging publishes and consumes messages on named topics.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg OutgoingMessage) error
}

// Consumer consumes a topic until ctx is done.
type Consumer interface {
	// Consume blocks until ctx is canceled or the driver fails.
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. A non-nil error asks the driver to
// redeliver when it can.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	Body []byte
	// Key is used for partitioning by Kafka and ordering by Pub/Sub.
	Key     []byte
	Headers map[string]string
}

// Message is a received message.
type Message struct {
	ID         string
	Topic      string
	Body       []byte
	Headers    map[string]string
	ReceivedAt time.Time
}

// Header returns the header value for key, or "".
func (m Message) Header(key string) string {
	return m.Headers[key]
}
