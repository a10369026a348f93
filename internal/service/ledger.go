package service

import (
	"context"
	"fmt"

	"tg-automod/internal/models"
)

// WarningLedger is the durable escalation counter. Every mutation is written through
// before it returns.
type WarningLedger struct {
	store WarningStore
}

func NewWarningLedger(store WarningStore) *WarningLedger {
	return &WarningLedger{store: store}
}

func (l *WarningLedger) Count(ctx context.Context, key models.MemberKey) (int, error) {
	n, err := l.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read warnings of %s: %w", key, err)
	}
	return n, nil
}

// Add increments the member's counter and returns the new value.
func (l *WarningLedger) Add(ctx context.Context, key models.MemberKey) (int, error) {
	n, err := l.store.Increment(ctx, key)
	if err != nil {
		return n, fmt.Errorf("add warning to %s: %w", key, err)
	}
	return n, nil
}

func (l *WarningLedger) Clear(ctx context.Context, key models.MemberKey) error {
	if err := l.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("clear warnings of %s: %w", key, err)
	}
	return nil
}
