// Package hub fans chat messages out to live listeners. Each chat has one
// writer path (Publish) and any number of subscribers with buffered
// channels. A Bridge carries messages between service instances.
package hub

import (
	"context"
	"sync"

	"github.com/gartstein/tradehub/internal/exchange/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultSubscriberCapacity = 64
	defaultDedupeWindow       = 1024
)

// Bridge forwards published messages to other instances.
type Bridge interface {
	Publish(ctx context.Context, msg models.Message) error
}

type Option func(*Hub)

func WithSubscriberCapacity(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.channelSize = n
		}
	}
}

func WithBridge(b Bridge) Option {
	return func(h *Hub) {
		h.bridge = b
	}
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[*subscriber]struct{}
	recentIDs   map[uuid.UUID]struct{}
	recentOrder []uuid.UUID
	channelSize int
	bridge      Bridge
	logger      *zap.Logger
}

// Subscription is an active listener on one chat.
type Subscription struct {
	Messages <-chan models.Message
	cancel   func()
}

// Close terminates the subscription and closes its channel.
func (s Subscription) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

func New(logger *zap.Logger, opts ...Option) *Hub {
	h := &Hub{
		subscribers: map[uuid.UUID]map[*subscriber]struct{}{},
		recentIDs:   map[uuid.UUID]struct{}{},
		recentOrder: make([]uuid.UUID, 0, defaultDedupeWindow),
		channelSize: defaultSubscriberCapacity,
		logger:      logger.Named("chat_hub"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *Hub) Subscribe(chatID uuid.UUID) Subscription {
	sub := &subscriber{ch: make(chan models.Message, h.channelSize)}
	h.mu.Lock()
	if h.subscribers[chatID] == nil {
		h.subscribers[chatID] = map[*subscriber]struct{}{}
	}
	h.subscribers[chatID][sub] = struct{}{}
	h.mu.Unlock()
	return Subscription{
		Messages: sub.ch,
		cancel: func() {
			h.removeSubscriber(chatID, sub)
		},
	}
}

// Publish delivers an already persisted message to local listeners and to
// the bridge. A bridge failure is returned after local delivery.
func (h *Hub) Publish(ctx context.Context, msg models.Message) error {
	h.Deliver(msg)
	if h.bridge == nil {
		return nil
	}
	return h.bridge.Publish(ctx, msg)
}

// Deliver hands a message to local listeners once; repeated ids are ignored.
func (h *Hub) Deliver(msg models.Message) {
	if h.isDuplicate(msg.ID) {
		return
	}
	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.subscribers[msg.ChatID]))
	for sub := range h.subscribers[msg.ChatID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()
	for _, sub := range subs {
		if !sub.deliver(msg) {
			h.logger.Warn("Chat listener is slow, dropped oldest message",
				zap.String("chat_id", msg.ChatID.String()),
			)
		}
	}
}

// Listeners returns the number of live subscriptions on a chat.
func (h *Hub) Listeners(chatID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[chatID])
}

func (h *Hub) removeSubscriber(chatID uuid.UUID, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs := h.subscribers[chatID]; subs != nil {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subscribers, chatID)
		}
	}
	sub.close()
}

func (h *Hub) isDuplicate(id uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.recentIDs[id]; ok {
		return true
	}
	h.recentIDs[id] = struct{}{}
	h.recentOrder = append(h.recentOrder, id)
	if len(h.recentOrder) > defaultDedupeWindow {
		oldest := h.recentOrder[0]
		h.recentOrder = h.recentOrder[1:]
		delete(h.recentIDs, oldest)
	}
	return false
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan models.Message
	closed bool
}

// deliver queues the message, evicting the oldest one when the buffer is
// full. It reports false when something was dropped.
func (s *subscriber) deliver(msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- msg:
		return true
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- msg
	return false
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}
