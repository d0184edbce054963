package rowstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
)

// IdempotencyStore is the authoritative replay record. A key in this table
// carries the recorded outcome of the posting it guards, which may still be
// unresolved if the append's fate was unknown at response time.
// Idempotency column positions, 1-indexed, as persisted.
const (
	idemColKey = iota + 1
	idemColResponse
	idemColCreatedAt
)

type IdempotencyStore struct {
	store ports.RowStore
	now   func() time.Time
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(store ports.RowStore) *IdempotencyStore {
	return &IdempotencyStore{store: store, now: time.Now}
}

// Get returns the stored response for key, or (nil, nil) if the key has
// never been recorded.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	idx, err := s.store.FindRow(ctx, ports.TableIdempotency, key)
	if errors.Is(err, ports.ErrRowNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find idempotency key: %w", err)
	}
	row, err := s.store.ReadRow(ctx, ports.TableIdempotency, idx)
	if err != nil {
		return nil, fmt.Errorf("read idempotency row: %w", err)
	}
	log := &domain.IdempotencyLog{Key: row[0]}
	if len(row) > 1 {
		log.ResponseJSON = []byte(row[1])
	}
	if len(row) > 2 {
		log.CreatedAt = parseCellTime(row[2])
	}
	return log, nil
}

// Put records or overwrites the outcome for a key. Overwrites exist so a
// record written while the append's fate was unknown can later be finalized
// in place once the fate is resolved.
func (s *IdempotencyStore) Put(ctx context.Context, log *domain.IdempotencyLog) error {
	createdAt := log.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	idx, err := s.store.FindRow(ctx, ports.TableIdempotency, log.Key)
	if err == nil {
		if err := s.store.UpdateCell(ctx, ports.TableIdempotency, idx, idemColResponse, string(log.ResponseJSON)); err != nil {
			return fmt.Errorf("update idempotency row: %w", err)
		}
		return nil
	}
	if !errors.Is(err, ports.ErrRowNotFound) {
		return fmt.Errorf("find idempotency key: %w", err)
	}
	row := []string{log.Key, string(log.ResponseJSON), formatCellTime(createdAt)}
	if err := s.store.AppendRow(ctx, ports.TableIdempotency, row); err != nil {
		return fmt.Errorf("append idempotency row: %w", err)
	}
	return nil
}
