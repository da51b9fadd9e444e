package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/internal/inventory"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
)

const defaultLowStockLimit = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type lowStockRepository interface {
	ListLowStock(ctx context.Context, limit int) ([]models.Material, error)
	LastMovement(ctx context.Context, materialID uuid.UUID) (*models.StockMovement, error)
}

type dedupingPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error)
}

type LowStockJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository lowStockRepository
	Outbox     dedupingPublisher
	Limit      int
}

// NewLowStockJob alerts on materials at or below their reorder threshold.
// One alert is raised per material per ledger movement, so a material that
// stays low is not re-announced every cycle.
func NewLowStockJob(params LowStockJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultLowStockLimit
	}
	return &lowStockJob{
		logg:   params.Logger,
		db:     params.DB,
		repo:   params.Repository,
		outbox: params.Outbox,
		limit:  limit,
	}, nil
}

type lowStockJob struct {
	logg   *logger.Logger
	db     txRunner
	repo   lowStockRepository
	outbox dedupingPublisher
	limit  int
}

func (j *lowStockJob) Name() string { return "low-stock-sweep" }

func (j *lowStockJob) Run(ctx context.Context) error {
	materials, err := j.repo.ListLowStock(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("list low stock materials: %w", err)
	}

	var (
		errs    error
		emitted int
	)
	for _, material := range materials {
		created, err := j.alert(ctx, material)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("material %s: %w", material.ID, err))
			continue
		}
		if created {
			emitted++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"low_stock": len(materials),
		"emitted":   emitted,
		"failed":    len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "low stock sweep complete")
	return errs
}

func (j *lowStockJob) alert(ctx context.Context, material models.Material) (bool, error) {
	last, err := j.repo.LastMovement(ctx, material.ID)
	if err != nil {
		return false, fmt.Errorf("load last movement: %w", err)
	}
	// Materials that were never moved key on their own id.
	key := material.ID
	if last != nil {
		key = last.ID
	}

	var created bool
	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		created, err = j.outbox.EmitIfNotExists(ctx, tx, inventory.LowStockEvent(material, key, "sweep"))
		return err
	})
	if err != nil {
		return false, fmt.Errorf("queue low stock event: %w", err)
	}
	return created, nil
}
