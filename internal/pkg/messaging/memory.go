package messaging

import (
	"context"
	"maps"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-process Messaging implementation. Publish never blocks:
// a message for a group whose consumers are all busy is dropped.
type Memory struct {
	mu     sync.Mutex
	seq    uint64
	groups map[string]map[string]*memoryGroup
	closed bool
	done   chan struct{}
}

type memoryGroup struct {
	ch      chan Message
	members int
}

const memoryBuffer = 64

// NewMemory returns an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{
		groups: map[string]map[string]*memoryGroup{},
		done:   make(chan struct{}),
	}
}

// Close stops every running Consume call.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish hands msg to one consumer of every group subscribed to topic.
func (m *Memory) Publish(ctx context.Context, topic string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.seq++
	out := Message{
		ID:         strconv.FormatUint(m.seq, 10),
		Topic:      topic,
		Body:       append([]byte(nil), msg.Body...),
		Headers:    maps.Clone(msg.Headers),
		ReceivedAt: time.Now(),
	}

	for _, g := range m.groups[topic] {
		select {
		case g.ch <- out:
		default:
		}
	}
	return nil
}

// Consume joins the group named by WithGroup (or a group of its own) and
// delivers messages until ctx is done or the bus is closed.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)

	g, group, err := m.join(topic, co.group)
	if err != nil {
		return err
	}
	defer m.leave(topic, group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case msg := <-g.ch:
					_ = callHandler(ctx, DriverMemory, handler, msg)
				}
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}

func (m *Memory) join(topic, group string) (*memoryGroup, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, "", ErrClosed
	}

	if group == "" {
		m.seq++
		group = "anon-" + strconv.FormatUint(m.seq, 10)
	}

	if m.groups[topic] == nil {
		m.groups[topic] = map[string]*memoryGroup{}
	}
	g, ok := m.groups[topic][group]
	if !ok {
		g = &memoryGroup{ch: make(chan Message, memoryBuffer)}
		m.groups[topic][group] = g
	}
	g.members++
	return g, group, nil
}

func (m *Memory) leave(topic, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.groups[topic][group]
	if !ok {
		return
	}
	g.members--
	if g.members <= 0 {
		delete(m.groups[topic], group)
	}
}
