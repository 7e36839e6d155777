package trash

import (
	"context"
	"encoding/json"
	"fmt"

	"sitekeeper/internal/core/apperror"
	"sitekeeper/internal/core/tx"
	"sitekeeper/pkg/logger"
)

// Handler is the per-entity-type snapshot/delete/restore triple.
// Restore must re-insert the row with its original id so foreign keys
// in other tables, which were never rewritten, stay valid - and must
// re-trigger any derived-state recomputation the normal insert path
// would have performed (the stock ledger, for movements).
type Handler struct {
	Snapshot func(ctx context.Context, entityID int64) (json.RawMessage, error)
	Delete   func(ctx context.Context, entityID int64) error
	Restore  func(ctx context.Context, data json.RawMessage) error
}

// Service implements the trash lifecycle. Reconstruction dispatches on
// the envelope's entity-type tag through a registry that is checked for
// completeness at startup.
type Service struct {
	repo      Repository
	txManager tx.Manager
	handlers  map[EntityType]Handler
}

// NewService creates a trash service with an empty registry.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		handlers:  make(map[EntityType]Handler),
	}
}

// Register installs the handler for an entity type.
func (s *Service) Register(entityType EntityType, h Handler) {
	s.handlers[entityType] = h
}

// CheckHandlers verifies every known entity type has a handler.
// Wiring calls this once so a missing restore path fails fast instead
// of surfacing when a user hits restore.
func (s *Service) CheckHandlers() error {
	for _, et := range AllEntityTypes {
		if _, ok := s.handlers[et]; !ok {
			return fmt.Errorf("trash: no handler registered for %q", et)
		}
	}
	return nil
}

func (s *Service) handler(entityType EntityType) (Handler, error) {
	h, ok := s.handlers[entityType]
	if !ok {
		return Handler{}, apperror.NewBusinessRule(
			fmt.Sprintf("unknown trash entity type %q", entityType))
	}
	return h, nil
}

// SoftDelete snapshots the entity and performs the real delete, both in
// one transaction: a crash cannot leave the entity deleted without a
// recoverable snapshot, nor a snapshot without the delete.
func (s *Service) SoftDelete(ctx context.Context, entityType EntityType, entityID int64) (*Item, error) {
	h, err := s.handler(entityType)
	if err != nil {
		return nil, err
	}

	snapshot, err := h.Snapshot(ctx, entityID)
	if err != nil {
		return nil, err
	}

	item := NewItem(entityType, entityID, snapshot)
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, item); err != nil {
			return fmt.Errorf("insert trash item: %w", err)
		}
		return h.Delete(ctx, entityID)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "soft deleted entity",
		"entity_type", entityType,
		"entity_id", entityID,
		"trash_id", item.ID,
	)
	return item, nil
}

// Restore reconstructs the entity from its snapshot, preserving the
// original id, and consumes the envelope - in one transaction.
func (s *Service) Restore(ctx context.Context, trashID string) error {
	item, err := s.repo.GetByID(ctx, trashID)
	if err != nil {
		return err
	}

	h, err := s.handler(item.EntityType)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := h.Restore(ctx, item.Data); err != nil {
			return fmt.Errorf("restore %s %d: %w", item.EntityType, item.EntityID, err)
		}
		return s.repo.Delete(ctx, item.ID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "restored entity",
		"entity_type", item.EntityType,
		"entity_id", item.EntityID,
	)
	return nil
}

// PermanentDelete removes the envelope without reconstruction.
func (s *Service) PermanentDelete(ctx context.Context, trashID string) error {
	return s.repo.Delete(ctx, trashID)
}

// EmptyTrash permanently deletes every envelope, item at a time. Not
// transactional across items: a mid-iteration failure leaves the
// remaining envelopes untouched.
func (s *Service) EmptyTrash(ctx context.Context) (int, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, item := range items {
		if err := s.repo.Delete(ctx, item.ID); err != nil {
			return deleted, fmt.Errorf("empty trash at %s: %w", item.ID, err)
		}
		deleted++
	}
	return deleted, nil
}

// List returns all envelopes, newest deletion first.
func (s *Service) List(ctx context.Context) ([]*Item, error) {
	return s.repo.List(ctx)
}
