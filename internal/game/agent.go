package game

import "context"

// Policy chooses actions for one seat. Policies receive immutable
// observations and return actions - all state mutation happens in Match.
//
// The engine never calls a policy concurrently with itself or with Apply.
// Decide should return promptly once ctx is done; the engine enforces its own
// decision timeout regardless. A policy whose Decide outlives the timeout is
// neither asked again nor told round results until that call returns.
type Policy interface {
	// Decide returns the action to take for the observed position.
	Decide(ctx context.Context, obs Observation) (Action, error)

	// RoundOver is called once per closed round with the revealed hands, so
	// stateful policies can adapt (for example by tracking bluff rates).
	RoundOver(record RoundRecord)
}

// PolicyFunc adapts a plain function into a Policy that ignores round results.
type PolicyFunc func(ctx context.Context, obs Observation) (Action, error)

func (f PolicyFunc) Decide(ctx context.Context, obs Observation) (Action, error) {
	return f(ctx, obs)
}

func (f PolicyFunc) RoundOver(RoundRecord) {}
