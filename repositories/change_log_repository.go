package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"watermap-api/models"
)

// ChangeLogRepository only ever appends; entries are immutable.
type ChangeLogRepository interface {
	Append(entry *models.ChangeLog) error
	ListByCanonicalID(canonicalID uuid.UUID) ([]models.ChangeLog, error)
	WithTx(tx *gorm.DB) ChangeLogRepository
}

type changeLogRepository struct {
	db *gorm.DB
}

func NewChangeLogRepository(db *gorm.DB) ChangeLogRepository {
	return &changeLogRepository{db: db}
}

func (r *changeLogRepository) WithTx(tx *gorm.DB) ChangeLogRepository {
	return &changeLogRepository{db: tx}
}

func (r *changeLogRepository) Append(entry *models.ChangeLog) error {
	return r.db.Create(entry).Error
}

func (r *changeLogRepository) ListByCanonicalID(canonicalID uuid.UUID) ([]models.ChangeLog, error) {
	var entries []models.ChangeLog
	err := r.db.Where("canonical_id = ?", canonicalID).
		Order("created_at asc, id asc").
		Find(&entries).Error
	return entries, err
}
