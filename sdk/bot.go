// Package sdk connects a policy to a match server so it can play as a
// remote bot.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/marno1d/callmybluff/internal/game"
	"github.com/marno1d/callmybluff/internal/protocol"
)

// Handler makes the bot's decisions. Any game.Policy, including the
// built-in bots, can be used as a handler.
type Handler interface {
	game.Policy
}

// Bot runs a Handler against a server connection
type Bot struct {
	name    string
	handler Handler
	logger  *log.Logger
	conn    *websocket.Conn

	mu      sync.Mutex
	seat    int
	players []string
	matches int
	wins    int
}

// New creates a new bot with the given handler
func New(name string, handler Handler, logger *log.Logger) *Bot {
	return &Bot{
		name:    name,
		handler: handler,
		logger:  logger.WithPrefix("sdk").With("bot", name),
		seat:    -1,
	}
}

// Connect dials serverURL and introduces the bot. http(s) URLs are mapped
// to ws(s) and a missing path defaults to /ws.
func (b *Bot) Connect(ctx context.Context, serverURL string) error {
	u, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		u.Scheme = "ws"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	b.logger.Info("Connecting to server", "url", u.String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	b.conn = conn

	return b.send(protocol.TypeConnect, "", protocol.Connect{Name: b.name})
}

// Run handles server messages until the server closes the connection or
// ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.conn == nil {
		return errors.New("not connected")
	}
	defer b.conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = b.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = b.conn.Close()
	})
	defer stop()

	for {
		var msg protocol.Message
		if err := b.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Info("Server closed the connection", "matches", b.MatchesPlayed())
				return nil
			}
			return err
		}
		if err := b.handle(ctx, &msg); err != nil {
			b.logger.Error("Handler error", "type", msg.Type, "error", err)
		}
	}
}

// Seat returns the bot's seat in the current match, -1 before the first
func (b *Bot) Seat() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seat
}

// Players returns the seat names of the current match
func (b *Bot) Players() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.players
}

// MatchesPlayed returns the number of finished matches
func (b *Bot) MatchesPlayed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.matches
}

// Wins returns the number of matches the bot won
func (b *Bot) Wins() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.wins
}

func (b *Bot) handle(ctx context.Context, msg *protocol.Message) error {
	switch msg.Type {
	case protocol.TypeWelcome:
		var welcome protocol.Welcome
		if err := msg.Decode(protocol.TypeWelcome, &welcome); err != nil {
			return err
		}
		b.mu.Lock()
		b.seat = welcome.Seat
		b.players = welcome.Players
		b.mu.Unlock()
		b.logger.Info("Seated", "seat", welcome.Seat, "players", welcome.Players, "match", welcome.MatchID)

	case protocol.TypeActionRequest:
		return b.onActionRequest(ctx, msg)

	case protocol.TypeRoundResult:
		var result protocol.RoundResult
		if err := msg.Decode(protocol.TypeRoundResult, &result); err != nil {
			return err
		}
		record, err := result.ToGame()
		if err != nil {
			return err
		}
		b.handler.RoundOver(record)

	case protocol.TypeMatchOver:
		var over protocol.MatchOver
		if err := msg.Decode(protocol.TypeMatchOver, &over); err != nil {
			return err
		}
		b.mu.Lock()
		b.matches++
		if over.Winner == b.seat {
			b.wins++
		}
		b.mu.Unlock()
		b.logger.Info("Match over", "winner", over.Winner, "rounds", over.Rounds)

	case protocol.TypeError:
		var data protocol.Error
		if err := msg.Decode(protocol.TypeError, &data); err != nil {
			return err
		}
		b.logger.Warn("Server error", "code", data.Code, "message", data.Message)

	case protocol.TypeRoundStart, protocol.TypePlayerAction:
		b.logger.Debug("Update", "type", msg.Type)

	default:
		return fmt.Errorf("%w: %s", protocol.ErrUnknownMessageType, msg.Type)
	}
	return nil
}

func (b *Bot) onActionRequest(ctx context.Context, msg *protocol.Message) error {
	var req protocol.ActionRequest
	if err := msg.Decode(protocol.TypeActionRequest, &req); err != nil {
		return err
	}
	obs, err := req.Observation.ToGame()
	if err != nil {
		return err
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	action, err := b.handler.Decide(ctx, obs)
	if err != nil {
		b.logger.Warn("Handler failed, sending fallback", "error", err)
		action = obs.Fallback()
	}
	return b.send(protocol.TypeAction, msg.RequestID, protocol.ActionFromGame(action))
}

func (b *Bot) send(t protocol.MessageType, requestID string, data any) error {
	msg, err := protocol.NewMessage(t, data)
	if err != nil {
		return err
	}
	msg.RequestID = requestID
	return b.conn.WriteJSON(msg)
}
