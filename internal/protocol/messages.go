// Package protocol defines the JSON messages exchanged between the match
// server and remote bots over a websocket.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MessageType identifies the type of message
type MessageType string

const (
	// Client -> Server
	TypeConnect MessageType = "connect"
	TypeAction  MessageType = "action"

	// Server -> Client
	TypeWelcome       MessageType = "welcome"
	TypeRoundStart    MessageType = "round_start"
	TypeActionRequest MessageType = "action_request"
	TypePlayerAction  MessageType = "player_action"
	TypeRoundResult   MessageType = "round_result"
	TypeMatchOver     MessageType = "match_over"
	TypeError         MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrUnexpectedMessage  = errors.New("unexpected message type")
)

// Message is the envelope for every websocket frame. RequestID pairs an
// action with the request that asked for it.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload into v, checking the message type first.
func (m *Message) Decode(want MessageType, v any) error {
	if m.Type != want {
		return fmt.Errorf("%w: got %s, want %s", ErrUnexpectedMessage, m.Type, want)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", m.Type, err)
	}
	return nil
}

// Client -> Server Messages

// Connect is the first message a bot sends.
type Connect struct {
	Name string `json:"name"`
}

// Action answers an ActionRequest. Action is "bet", "reroll-bet" or "call";
// Lock is only read for rerolls.
type Action struct {
	Action string `json:"action"`
	Bet    int    `json:"bet,omitempty"`
	Lock   []bool `json:"lock,omitempty"`
}

// Server -> Client Messages

// Welcome confirms a connection and tells the bot its seat.
type Welcome struct {
	Seat         int      `json:"seat"`
	Players      []string `json:"players"`
	StartingDice int      `json:"startingDice"`
	MatchID      string   `json:"matchId"`
}

// RoundStart is sent when dice have been rolled. Dice holds only the
// receiving bot's hand.
type RoundStart struct {
	MatchID    string `json:"matchId"`
	Round      int    `json:"round"`
	Starter    int    `json:"starter"`
	TurnOrder  []int  `json:"turnOrder"`
	DiceCounts []int  `json:"diceCounts"`
	Dice       []int  `json:"dice"`
}

// ActionRequest asks a bot to act on its observation.
type ActionRequest struct {
	MatchID     string      `json:"matchId"`
	Observation Observation `json:"observation"`
	TimeoutMs   int64       `json:"timeoutMs"`
}

// Observation mirrors a player's view of the match.
type Observation struct {
	Player         int        `json:"player"`
	Round          int        `json:"round"`
	Dice           []int      `json:"dice"`
	Locked         []bool     `json:"locked"`
	Opponents      []Opponent `json:"opponents"`
	CurrentBet     int        `json:"currentBet"`
	CurrentPlayer  int        `json:"currentPlayer"`
	PreviousPlayer int        `json:"previousPlayer"`
	TurnOrder      []int      `json:"turnOrder"`
	DiceCounts     []int      `json:"diceCounts"`
	Log            []Entry    `json:"log"`
}

// Opponent is the visible part of another player's hand.
type Opponent struct {
	Player  int   `json:"player"`
	Unknown int   `json:"unknown"`
	Known   []int `json:"known"`
}

// Entry is one line of the round's action log.
type Entry struct {
	Kind   string  `json:"kind"`
	Player int     `json:"player"`
	Bet    int     `json:"bet"`
	Locked []bool  `json:"locked,omitempty"`
	Result *Result `json:"result,omitempty"`
}

// Result describes how a call was resolved.
type Result struct {
	Loser       int   `json:"loser"`
	DiceLost    int   `json:"diceLost"`
	ActualCount int   `json:"actualCount"`
	Face        int   `json:"face"`
	Quantity    int   `json:"quantity"`
	Bet         int   `json:"bet"`
	Caller      int   `json:"caller"`
	Bettor      int   `json:"bettor"`
	Removed     int   `json:"removed"`
	Eliminated  []int `json:"eliminated,omitempty"`
}

// PlayerAction is broadcast after every bet, reroll and call.
type PlayerAction struct {
	MatchID  string `json:"matchId"`
	Round    int    `json:"round"`
	Entry    Entry  `json:"entry"`
	Fallback bool   `json:"fallback,omitempty"`
}

// RoundResult is broadcast when a call closes a round, revealing every hand.
type RoundResult struct {
	MatchID    string  `json:"matchId"`
	Round      int     `json:"round"`
	Starter    int     `json:"starter"`
	Hands      [][]int `json:"hands"`
	Log        []Entry `json:"log"`
	Result     Result  `json:"result"`
	DiceBefore []int   `json:"diceBefore"`
	DiceAfter  []int   `json:"diceAfter"`
}

// MatchOver is broadcast once a single player remains.
type MatchOver struct {
	MatchID    string `json:"matchId"`
	Winner     int    `json:"winner"`
	Placements []int  `json:"placements"`
	Rounds     int    `json:"rounds"`
}

// Error reports a protocol problem to the client.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
