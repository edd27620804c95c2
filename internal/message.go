package internal

import (
	"context"
	"sync"
)

// Message is one delivery from a subscription.
// Ack and Nack settle it; only the first call of either reaches the broker.
type Message struct {
	ID    string
	Topic string
	Data  []byte

	once sync.Once
	ack  func()
	nack func()
}

type Handler func(ctx context.Context, message *Message)

func NewMessage(id, topic string, data []byte, ack, nack func()) *Message {
	return &Message{
		ID:    id,
		Topic: topic,
		Data:  data,
		ack:   ack,
		nack:  nack,
	}
}

func (m *Message) Ack() {
	m.once.Do(func() {
		if m.ack != nil {
			m.ack()
		}
	})
}

func (m *Message) Nack() {
	m.once.Do(func() {
		if m.nack != nil {
			m.nack()
		}
	})
}
