package game

import (
	"slices"
	"time"

	"github.com/marno1d/callmybluff/dice"
)

// EventType represents a match event type with type safety
type EventType string

const (
	EventTypeRoundStart  EventType = "round_start"
	EventTypeAction      EventType = "action"
	EventTypeRoundResult EventType = "round_result"
	EventTypeMatchOver   EventType = "match_over"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents anything published while a match is driven
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// RoundStartEvent is published when a round's dice have been rolled. Hands
// holds every player's dice; subscribers decide how much of it to show.
type RoundStartEvent struct {
	MatchID    string
	Round      int
	Starter    int
	TurnOrder  []int
	DiceCounts []int
	Hands      [][]dice.Face
	timestamp  time.Time
}

func (e RoundStartEvent) EventType() EventType { return EventTypeRoundStart }
func (e RoundStartEvent) Timestamp() time.Time { return e.timestamp }

// ActionEvent is published for every bet, reroll and call.
type ActionEvent struct {
	MatchID   string
	Round     int
	Entry     LogEntry
	Hand      []dice.Face // actor's dice after the action
	Fallback  bool        // the engine substituted the action
	timestamp time.Time
}

func (e ActionEvent) EventType() EventType { return EventTypeAction }
func (e ActionEvent) Timestamp() time.Time { return e.timestamp }

// RoundResultEvent is published when a call closes a round.
type RoundResultEvent struct {
	MatchID   string
	Record    RoundRecord
	timestamp time.Time
}

func (e RoundResultEvent) EventType() EventType { return EventTypeRoundResult }
func (e RoundResultEvent) Timestamp() time.Time { return e.timestamp }

// MatchOverEvent is published once a single player remains.
type MatchOverEvent struct {
	MatchID   string
	Result    MatchResult
	timestamp time.Time
}

func (e MatchOverEvent) EventType() EventType { return EventTypeMatchOver }
func (e MatchOverEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber can subscribe to match events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a synchronous in-memory event bus. Subscribers run on
// the publishing goroutine, in subscription order.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.subscribers = slices.DeleteFunc(bus.subscribers, func(s EventSubscriber) bool {
		return s == subscriber
	})
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
