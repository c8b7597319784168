package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/resolution-tracker/internal"
	rdm "github.com/frahmantamala/resolution-tracker/internal/core/datamodel/resolution"
	"github.com/frahmantamala/resolution-tracker/internal/interaction"
	"github.com/frahmantamala/resolution-tracker/internal/resolution"
)

// ResolutionRepository implements workflow.Repository using GORM
type ResolutionRepository struct {
	db *gorm.DB
}

func NewResolutionRepository(db *gorm.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

func (r *ResolutionRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("ExecutorUnit.Supervisor").
		Preload("CreatedBy").
		Preload("Units", func(db *gorm.DB) *gorm.DB {
			return db.Order("role ASC, position ASC")
		}).
		Preload("Units.User.Supervisor")
}

// Create stores res and its unit links in one transaction. Linked users
// must already exist.
func (r *ResolutionRepository) Create(ctx context.Context, res *resolution.Resolution) error {
	row := toResolutionRow(res)
	units := row.Units
	row.Units = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
			return err
		}
		for i := range units {
			units[i].ResolutionID = row.ID
		}
		if len(units) > 0 {
			if err := tx.Omit(clause.Associations).Create(&units).Error; err != nil {
				return err
			}
		}
		res.CreatedAt = row.CreatedAt
		res.UpdatedAt = row.UpdatedAt
		return nil
	})
}

func (r *ResolutionRepository) GetByPublicID(ctx context.Context, publicID string) (*resolution.Resolution, error) {
	var row rdm.Resolution
	err := r.withDetails(ctx).Where("public_id = ?", publicID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrResolutionNotFound
		}
		return nil, err
	}
	res := fromResolutionRow(&row)
	return &res, nil
}

// Update writes the fields a transition or progress report can change.
func (r *ResolutionRepository) Update(ctx context.Context, res *resolution.Resolution) error {
	result := r.db.WithContext(ctx).Model(&rdm.Resolution{}).
		Where("public_id = ?", res.PublicID).
		Updates(map[string]interface{}{
			"status":      string(res.Status),
			"progress":    res.Progress,
			"deadline":    res.Deadline,
			"notified_at": res.NotifiedAt,
			"updated_at":  res.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrResolutionNotFound
	}
	return nil
}

func (r *ResolutionRepository) ListByStatus(ctx context.Context, status resolution.Status) ([]resolution.Resolution, error) {
	var rows []rdm.Resolution
	if err := r.withDetails(ctx).Where("status = ?", string(status)).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]resolution.Resolution, 0, len(rows))
	for i := range rows {
		out = append(out, fromResolutionRow(&rows[i]))
	}
	return out, nil
}

func (r *ResolutionRepository) resolutionID(ctx context.Context, publicID string) (int64, error) {
	var row rdm.Resolution
	err := r.db.WithContext(ctx).Select("id").Where("public_id = ?", publicID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, internal.ErrResolutionNotFound
		}
		return 0, err
	}
	return row.ID, nil
}

func (r *ResolutionRepository) ListInteractions(ctx context.Context, publicID string) ([]interaction.Interaction, error) {
	id, err := r.resolutionID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	var rows []rdm.Interaction
	err = r.db.WithContext(ctx).Preload("Author").
		Where("resolution_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]interaction.Interaction, 0, len(rows))
	for i := range rows {
		out = append(out, fromInteractionRow(&rows[i]))
	}
	return out, nil
}

func (r *ResolutionRepository) GetInteraction(ctx context.Context, publicID string, interactionID int64) (*interaction.Interaction, error) {
	id, err := r.resolutionID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	var row rdm.Interaction
	err = r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND resolution_id = ?", interactionID, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrInteractionMissing
		}
		return nil, err
	}
	in := fromInteractionRow(&row)
	return &in, nil
}

func (r *ResolutionRepository) CreateInteraction(ctx context.Context, publicID string, in *interaction.Interaction) error {
	id, err := r.resolutionID(ctx, publicID)
	if err != nil {
		return err
	}
	row := toInteractionRow(id, in)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return err
	}
	in.ID = row.ID
	in.CreatedAt = row.CreatedAt
	return nil
}

func (r *ResolutionRepository) ListProgress(ctx context.Context, publicID string) ([]interaction.ProgressUpdate, error) {
	id, err := r.resolutionID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	var rows []rdm.ProgressUpdate
	err = r.db.WithContext(ctx).Preload("Author").
		Where("resolution_id = ?", id).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]interaction.ProgressUpdate, 0, len(rows))
	for i := range rows {
		out = append(out, fromProgressRow(&rows[i]))
	}
	return out, nil
}

func (r *ResolutionRepository) CreateProgress(ctx context.Context, publicID string, p *interaction.ProgressUpdate) error {
	id, err := r.resolutionID(ctx, publicID)
	if err != nil {
		return err
	}
	row := &rdm.ProgressUpdate{
		ResolutionID: id,
		AuthorID:     p.Author.ID,
		Progress:     p.Progress,
		Description:  p.Description,
		CreatedAt:    p.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	return nil
}
