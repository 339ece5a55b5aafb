// Package coreerrors defines the structured error taxonomy shared
// across the routing core, matching the RPC-code-plus-message
// convention the JSON-RPC surface named in spec §6 expects.
package coreerrors

import "fmt"

// Kind classifies an error by how the caller and orchestrator should
// react to it, per the propagation policy: local recovery for
// Transient, cleanup-then-propagate for everything else.
type Kind int

const (
	// ParamError is a caller-fault error: recoverable upstream. The
	// orchestrator preserves any reservations already made so the
	// caller can correct its input and retry.
	ParamError Kind = iota
	// Transient covers a slow peer or a gossip race; the caller
	// retries or defers rather than surfacing a user-visible failure.
	Transient
	// BudgetExceeded means a route's fee or CLTV cost exceeded the
	// caller's stated budget. Carries a Hint identifying the channel
	// the caller should exclude on retry.
	BudgetExceeded
	// Unreachable means no route could be found at all.
	Unreachable
	// ProtocolFailure means a peer refused a request outright.
	// Cleanup is always performed before this propagates.
	ProtocolFailure
	// AmbiguousBroadcast means a transaction may have been published
	// despite the reporting error. It is treated as success for
	// state-machine purposes: destinations remain done. The caller
	// still sees the error.
	AmbiguousBroadcast
)

func (k Kind) String() string {
	switch k {
	case ParamError:
		return "param_error"
	case Transient:
		return "transient"
	case BudgetExceeded:
		return "budget_exceeded"
	case Unreachable:
		return "unreachable"
	case ProtocolFailure:
		return "protocol_failure"
	case AmbiguousBroadcast:
		return "ambiguous_broadcast"
	default:
		return "unknown"
	}
}

// RPC codes for the multifundchannel/permuteroute/multiwithdraw surface,
// per spec §6.
const (
	CodeExceedsMaxFunding = 300
	CodeInsufficientFunds = 301
	CodeDust              = 302
	CodeBroadcastFailed   = 303
	CodeOther             = -1
	CodeParam             = -32602
	CodeRouteNotFound     = "PAY_ROUTE_NOT_FOUND"
)

// Error is a structured error carrying an RPC code, a human message,
// and optionally the name of the sub-command that failed — the last
// attempted external operation, used to explain the failure to the
// caller.
type Error struct {
	Kind       Kind
	Code       int
	Message    string
	SubCommand string
}

func (e *Error) Error() string {
	if e.SubCommand != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.SubCommand, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New constructs an Error of the given kind and RPC code.
func New(kind Kind, code int, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WithSubCommand returns a copy of e naming the sub-command that failed.
func (e *Error) WithSubCommand(name string) *Error {
	cp := *e
	cp.SubCommand = name
	return &cp
}

// BudgetHint names the channel a BudgetExceeded error recommends the
// caller add to its exclude set on retry.
type BudgetHint struct {
	ChannelID uint64
}

// BudgetError is a BudgetExceeded error carrying a repair hint.
type BudgetError struct {
	Error
	Hint BudgetHint
}

// NewBudgetExceeded constructs a BudgetExceeded error recommending the
// caller exclude hintChannel on retry.
func NewBudgetExceeded(message string, hintChannel uint64) *BudgetError {
	return &BudgetError{
		Error: Error{Kind: BudgetExceeded, Code: CodeOther, Message: message},
		Hint:  BudgetHint{ChannelID: hintChannel},
	}
}
