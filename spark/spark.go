// Package spark implements the cooperative fan-out task primitive that
// the funding orchestrator (and MultiConnect) uses to run several
// independent sub-operations (one per peer, one per destination)
// concurrently within the scope of a single command, without any of
// them outliving that command.
package spark

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Command is a cancellation scope: every spark started against it is
// canceled the moment Finish is called, the way the source's
// callback-chained struct command drops every spark still blocked on
// an outreq once the command itself completes.
type Command struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	finished bool
}

// NewCommand creates a Command whose sparks are bound to parent's
// lifetime as well as their own Finish call.
func NewCommand(parent context.Context) *Command {
	ctx, cancel := context.WithCancel(parent)
	return &Command{ctx: ctx, cancel: cancel}
}

// Context returns the cancellation context sparks of this command
// should select on to notice they've been asked to stop.
func (c *Command) Context() context.Context {
	return c.ctx
}

// Finish cancels every outstanding spark of this command. Idempotent.
func (c *Command) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finished {
		return
	}
	c.finished = true
	c.cancel()
}

// Token is the handle a spark's body uses to signal it has finished,
// and the handle a waiter blocks on. It is returned by StartSpark and
// consumed by WaitSpark/WaitAllSparks — matching struct
// plugin_spark_completion's role as "the self of the spark."
type Token struct {
	done chan struct{}
	once sync.Once
	err  error

	waited int32
}

// Complete signals that the spark holding this token has finished
// processing. Safe to call more than once; only the first call has an
// effect, mirroring plugin_spark_complete being a no-op once the spark
// (or its command) is already done.
func Complete(t *Token) {
	t.once.Do(func() { close(t.done) })
}

// Fail records err as the spark's result and completes it.
func Fail(t *Token, err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// StartSpark starts body running concurrently with the caller, gated
// to begin at the next scheduling point (a plain goroutine launch is
// the direct Go equivalent of the source's "runs once the invoker
// blocks" mainloop deferral). body must arrange to call Complete or
// Fail on the returned token exactly once; a body that never does
// leaves any waiter blocked until cmd is canceled.
func StartSpark(cmd *Command, body func(ctx context.Context, token *Token)) *Token {
	t := &Token{done: make(chan struct{})}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				Fail(t, fmt.Errorf("spark panic: %v", r))
			}
		}()
		body(cmd.ctx, t)
	}()

	return t
}

// WaitSpark blocks until token completes or cmd is canceled, whichever
// comes first, and frees the token — a second WaitSpark on the same
// token is a caller bug and returns ErrAlreadyWaited rather than
// blocking forever, since only one waiter per spark is ever valid.
func WaitSpark(cmd *Command, token *Token) error {
	if !atomic.CompareAndSwapInt32(&token.waited, 0, 1) {
		return ErrAlreadyWaited
	}

	select {
	case <-token.done:
		return token.err
	case <-cmd.ctx.Done():
		log.Debugf("spark: command canceled before spark completed")
		return cmd.ctx.Err()
	}
}

// WaitAllSparks waits for every token in tokens, returning one error
// per token in the same order (nil for a token that completed without
// error). A nil entry in tokens is treated as already-complete.
func WaitAllSparks(cmd *Command, tokens []*Token) []error {
	errs := make([]error, len(tokens))
	for i, t := range tokens {
		if t == nil {
			continue
		}
		errs[i] = WaitSpark(cmd, t)
	}
	return errs
}

// ErrAlreadyWaited is returned by WaitSpark when a token has already
// been waited on once.
var ErrAlreadyWaited = fmt.Errorf("spark: token already has a waiter")
