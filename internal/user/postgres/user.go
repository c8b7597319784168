package postgres

import (
	"context"
	"errors"

	userDatamodel "github.com/frahmantamala/resolution-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/resolution-tracker/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository implements user.Repository using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*user.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Preload("Supervisor").Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&u), nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]user.User, error) {
	var rows []userDatamodel.User
	if err := r.db.WithContext(ctx).Preload("Supervisor").Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomain(rows), nil
}

func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	var rows []userDatamodel.User
	if err := r.db.WithContext(ctx).Preload("Supervisor").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomain(rows), nil
}

// Upsert inserts the user or overwrites its profile fields on id conflict.
func (r *UserRepository) Upsert(ctx context.Context, u *user.User) error {
	row := user.ToDataModel(u)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "department", "position", "supervisor_id", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return err
	}
	u.ID = row.ID
	return nil
}

func toDomain(rows []userDatamodel.User) []user.User {
	out := make([]user.User, 0, len(rows))
	for i := range rows {
		out = append(out, *user.FromDataModel(&rows[i]))
	}
	return out
}
