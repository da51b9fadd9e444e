package outbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

const maxLastErrorLen = 1024

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

func (r *Repository) ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID, dedupeKey string) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	query := tx.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType)
	if key := strings.TrimSpace(dedupeKey); key != "" {
		query = query.Where("dedupe_key = ?", key)
	} else {
		query = query.Where("aggregate_type = ? AND aggregate_id = ?", aggregateType, aggregateID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FetchUnpublishedForPublish locks a batch of due rows so concurrent
// publishers skip each other.
func (r *Repository) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var rows []models.OutboxEvent
	query := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("published_at IS NULL").
		Where("next_attempt_at IS NULL OR next_attempt_at <= ?", time.Now().UTC())
	if maxAttempts > 0 {
		query = query.Where("attempt_count < ?", maxAttempts)
	}
	err := query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now().UTC(),
			"last_error":   nil,
		}).Error
}

// MarkFailedTx records a retryable failure and pushes the row back by retryIn.
func (r *Repository) MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error, retryIn time.Duration) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	updates := map[string]any{
		"last_error":    truncateError(cause),
		"attempt_count": gorm.Expr("attempt_count + 1"),
	}
	if retryIn > 0 {
		updates["next_attempt_at"] = time.Now().UTC().Add(retryIn)
	}
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(updates).Error
}

// MarkTerminalTx pins the attempt count at the ceiling so the row is never
// fetched again. The DLQ row carries the details.
func (r *Repository) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, cause error, terminalAttempts int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    truncateError(cause),
			"attempt_count": terminalAttempts,
		}).Error
}

// DeletePublishedBefore prunes published rows older than cutoff and reports
// how many were removed.
func (r *Repository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res := r.db.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at < ?", cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func truncateError(err error) *string {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if len(msg) > maxLastErrorLen {
		msg = msg[:maxLastErrorLen]
	}
	return &msg
}
