package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/marno1d/callmybluff/internal/game"
	"github.com/marno1d/callmybluff/internal/protocol"
)

// ErrDecisionTimeout is returned when a remote bot does not answer in time.
// The engine then plays the fallback action for it.
var ErrDecisionTimeout = errors.New("decision timeout")

// remote is the part of a Connection a NetworkAgent talks to
type remote interface {
	Name() string
	SendMessage(msg *protocol.Message) error
	Actions() <-chan *protocol.Message
	Done() <-chan struct{}
}

// NetworkAgent is a game.Policy that proxies decisions to a remote bot
type NetworkAgent struct {
	conn    remote
	matchID string
	timeout time.Duration
	clock   quartz.Clock
	logger  *log.Logger
}

// NewNetworkAgent creates a policy asking conn for decisions
func NewNetworkAgent(conn remote, matchID string, timeout time.Duration, clock quartz.Clock, logger *log.Logger) *NetworkAgent {
	return &NetworkAgent{
		conn:    conn,
		matchID: matchID,
		timeout: timeout,
		clock:   clock,
		logger:  logger.WithPrefix("network-agent").With("bot", conn.Name()),
	}
}

// Decide sends an action request and waits for the matching answer
func (na *NetworkAgent) Decide(ctx context.Context, obs game.Observation) (game.Action, error) {
	requestID := uuid.NewString()
	msg, err := protocol.NewMessage(protocol.TypeActionRequest, protocol.ActionRequest{
		MatchID:     na.matchID,
		Observation: protocol.ObservationFromGame(obs),
		TimeoutMs:   na.timeout.Milliseconds(),
	})
	if err != nil {
		return game.Action{}, fmt.Errorf("create action request: %w", err)
	}
	msg.RequestID = requestID

	timeoutFired := make(chan struct{})
	if na.timeout > 0 {
		timer := na.clock.AfterFunc(na.timeout, func() {
			close(timeoutFired)
		})
		defer timer.Stop()
	}

	if err := na.conn.SendMessage(msg); err != nil {
		return game.Action{}, fmt.Errorf("send action request: %w", err)
	}
	na.logger.Debug("Requested decision", "requestId", requestID, "bet", obs.CurrentBet)

	for {
		select {
		case reply := <-na.conn.Actions():
			if reply.RequestID != requestID {
				na.logger.Warn("Ignoring stale action", "requestId", reply.RequestID, "want", requestID)
				continue
			}
			var data protocol.Action
			if err := reply.Decode(protocol.TypeAction, &data); err != nil {
				return game.Action{}, err
			}
			action, err := data.ToGame()
			if err != nil {
				return game.Action{}, err
			}
			na.logger.Debug("Received decision", "action", action)
			return action, nil

		case <-timeoutFired:
			na.logger.Warn("Decision timeout", "timeout", na.timeout)
			return game.Action{}, ErrDecisionTimeout

		case <-na.conn.Done():
			return game.Action{}, ErrConnectionClosed

		case <-ctx.Done():
			return game.Action{}, ctx.Err()
		}
	}
}

// RoundOver is a no-op: remote bots learn round results from the broadcast.
func (na *NetworkAgent) RoundOver(game.RoundRecord) {}

var _ game.Policy = (*NetworkAgent)(nil)
