package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-calsync/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReminderDispatchStore keeps the append-only ledger of reminder send
// attempts. One row per candidate per batch, including skips.
type ReminderDispatchStore struct {
	repo repository.Repository[*reminderDispatchRecord]
}

func NewReminderDispatchStore(db *bun.DB) (*ReminderDispatchStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*reminderDispatchRecord](db, reminderDispatchHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid reminder dispatch repository wiring: %w", err)
		}
	}
	return &ReminderDispatchStore{repo: repo}, nil
}

func (s *ReminderDispatchStore) Record(ctx context.Context, entry core.ReminderDispatch) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: reminder dispatch store is not configured")
	}
	if entry.ExternalUserID <= 0 {
		return fmt.Errorf("sqlstore: external user id is required")
	}
	status := strings.TrimSpace(entry.Status)
	if status == "" {
		status = core.DispatchStatusFailed
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	record := &reminderDispatchRecord{
		ID:              uuid.NewString(),
		ExternalUserID:  entry.ExternalUserID,
		Email:           strings.TrimSpace(entry.Email),
		DaysSinceUpdate: entry.DaysSinceUpdate,
		Status:          status,
		MessageID:       strings.TrimSpace(entry.MessageID),
		Error:           strings.TrimSpace(entry.Error),
		CreatedAt:       createdAt.UTC(),
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

// ListRecent returns the newest ledger entries, most recent first.
func (s *ReminderDispatchStore) ListRecent(ctx context.Context, limit int) ([]core.ReminderDispatch, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: reminder dispatch store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	records, _, err := s.repo.List(ctx,
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.ReminderDispatch, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

var _ core.DispatchLedger = (*ReminderDispatchStore)(nil)
