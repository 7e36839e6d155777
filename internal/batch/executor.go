// Package batch runs caller-supplied sequences of operations. Read
// batches allow partial success; write and delete batches execute
// inside one transaction with all-or-nothing semantics.
package batch

import (
	"context"
	"fmt"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/tx"
	"sitekeeper/pkg/logger"
)

// Request is one operation in a batch, identified by the caller.
type Request struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Params []any  `json:"params"`
}

// Result reports one operation's outcome.
type Result struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Handler executes one operation type. Params arrive pre-validated by
// the routing layer; handlers assume well-typed arguments.
type Handler func(ctx context.Context, params []any) (any, error)

// Executor dispatches batch operations to registered handlers.
type Executor struct {
	txManager tx.Manager
	handlers  map[string]Handler
}

// NewExecutor creates an executor with an empty registry.
func NewExecutor(txManager tx.Manager) *Executor {
	return &Executor{
		txManager: txManager,
		handlers:  make(map[string]Handler),
	}
}

// Register installs the handler for an operation type.
func (e *Executor) Register(opType string, h Handler) {
	e.handlers[opType] = h
}

// RunReadBatch executes each read independently. A failure in one op is
// captured per item and does not abort its siblings.
func (e *Executor) RunReadBatch(ctx context.Context, ops []Request) []Result {
	results := make([]Result, 0, len(ops))
	for _, op := range ops {
		h, ok := e.handlers[op.Type]
		if !ok {
			results = append(results, Result{
				ID:    op.ID,
				Error: fmt.Sprintf("unknown operation type %q", op.Type),
			})
			continue
		}

		data, err := h(ctx, op.Params)
		if err != nil {
			results = append(results, Result{ID: op.ID, Error: err.Error()})
			continue
		}
		results = append(results, Result{ID: op.ID, Success: true, Data: data})
	}
	return results
}

// RunWriteBatch executes ops in submitted order inside one transaction.
// On the first failure the whole transaction rolls back and execution
// stops: nothing before the failure persists either. The returned
// results cover completed ops plus the failing one.
func (e *Executor) RunWriteBatch(ctx context.Context, ops []Request) ([]Result, error) {
	return e.runAtomic(ctx, ops)
}

// RunDeleteBatch has the same all-or-nothing contract as RunWriteBatch.
func (e *Executor) RunDeleteBatch(ctx context.Context, ops []Request) ([]Result, error) {
	return e.runAtomic(ctx, ops)
}

func (e *Executor) runAtomic(ctx context.Context, ops []Request) ([]Result, error) {
	// Unknown operation types abort before any work starts.
	for _, op := range ops {
		if _, ok := e.handlers[op.Type]; !ok {
			return nil, apperror.NewExecution(op.ID,
				fmt.Errorf("unknown operation type %q", op.Type))
		}
	}

	results := make([]Result, 0, len(ops))
	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, op := range ops {
			data, err := e.handlers[op.Type](ctx, op.Params)
			if err != nil {
				results = append(results, Result{ID: op.ID, Error: err.Error()})
				return apperror.NewExecution(op.ID, err)
			}
			results = append(results, Result{ID: op.ID, Success: true, Data: data})
		}
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "batch rolled back",
			"ops", len(ops),
			"completed", len(results)-1,
			"error", err,
		)
		return results, err
	}
	return results, nil
}
