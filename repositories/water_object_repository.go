package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"watermap-api/models"
)

// WaterObjectRepository is a plain persistence layer. Ownership and status
// preconditions live in the service; the status-guarded updates here exist
// so the service can detect stale-status races by the affected row count.
type WaterObjectRepository interface {
	Create(obj *models.WaterObject) error
	GetByID(id uint) (*models.WaterObject, error)
	GetPublishedByCanonicalID(canonicalID uuid.UUID) (*models.WaterObject, error)
	ListPublished(objectType models.ObjectType) ([]models.WaterObject, error)
	ListByStatus(status models.ObjectStatus) ([]models.WaterObject, error)
	ListByOwner(ownerID uint, statuses []models.ObjectStatus) ([]models.WaterObject, error)
	History(canonicalID uuid.UUID) ([]models.WaterObject, error)
	NextVersion(canonicalID uuid.UUID) (int, error)
	LockLineage(canonicalID uuid.UUID) error
	UpdateFieldsWhereStatus(id uint, statuses []models.ObjectStatus, fields map[string]interface{}) (int64, error)
	ArchivePublished(canonicalID uuid.UUID) error
	Publish(id uint, reviewerID uint, at time.Time) (int64, error)
	CountPublished(canonicalID uuid.UUID) (int64, error)
	CountByStatus(status models.ObjectStatus) (int64, error)
	Delete(id uint) error
	WithTx(tx *gorm.DB) WaterObjectRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

type waterObjectRepository struct {
	db *gorm.DB
}

func NewWaterObjectRepository(db *gorm.DB) WaterObjectRepository {
	return &waterObjectRepository{db: db}
}

func (r *waterObjectRepository) WithTx(tx *gorm.DB) WaterObjectRepository {
	return &waterObjectRepository{db: tx}
}

func (r *waterObjectRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func (r *waterObjectRepository) Create(obj *models.WaterObject) error {
	return r.db.Create(obj).Error
}

func (r *waterObjectRepository) GetByID(id uint) (*models.WaterObject, error) {
	var obj models.WaterObject
	err := r.db.Preload("Creator").First(&obj, id).Error
	return &obj, err
}

func (r *waterObjectRepository) GetPublishedByCanonicalID(canonicalID uuid.UUID) (*models.WaterObject, error) {
	var obj models.WaterObject
	err := r.db.Where("canonical_id = ? AND status = ?", canonicalID, models.StatusPublished).
		First(&obj).Error
	return &obj, err
}

func (r *waterObjectRepository) ListPublished(objectType models.ObjectType) ([]models.WaterObject, error) {
	var objects []models.WaterObject
	query := r.db.Where("status = ?", models.StatusPublished)
	if objectType != "" {
		query = query.Where("object_type = ?", objectType)
	}
	err := query.Order("name_kz").Find(&objects).Error
	return objects, err
}

func (r *waterObjectRepository) ListByStatus(status models.ObjectStatus) ([]models.WaterObject, error) {
	var objects []models.WaterObject
	err := r.db.Where("status = ?", status).
		Preload("Creator").
		Order("updated_at asc").
		Find(&objects).Error
	return objects, err
}

func (r *waterObjectRepository) ListByOwner(ownerID uint, statuses []models.ObjectStatus) ([]models.WaterObject, error) {
	var objects []models.WaterObject
	query := r.db.Where("created_by = ?", ownerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("updated_at desc").Find(&objects).Error
	return objects, err
}

func (r *waterObjectRepository) History(canonicalID uuid.UUID) ([]models.WaterObject, error) {
	var objects []models.WaterObject
	err := r.db.Where("canonical_id = ?", canonicalID).
		Preload("Creator").
		Order("version desc, id desc").
		Find(&objects).Error
	return objects, err
}

func (r *waterObjectRepository) NextVersion(canonicalID uuid.UUID) (int, error) {
	var max int
	err := r.db.Model(&models.WaterObject{}).
		Where("canonical_id = ?", canonicalID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	return max + 1, err
}

// LockLineage takes row locks on every version of a lineage so that
// concurrent approves on the same canonical id serialize. Must run inside a
// transaction. SQLite permits a single writer per database and has no FOR
// UPDATE syntax, so the clause is postgres-only.
func (r *waterObjectRepository) LockLineage(canonicalID uuid.UUID) error {
	query := r.db
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ids []uint
	return query.Model(&models.WaterObject{}).
		Where("canonical_id = ?", canonicalID).
		Order("id").
		Pluck("id", &ids).Error
}

func (r *waterObjectRepository) UpdateFieldsWhereStatus(id uint, statuses []models.ObjectStatus, fields map[string]interface{}) (int64, error) {
	result := r.db.Model(&models.WaterObject{}).
		Where("id = ? AND status IN ?", id, statuses).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *waterObjectRepository) ArchivePublished(canonicalID uuid.UUID) error {
	return r.db.Model(&models.WaterObject{}).
		Where("canonical_id = ? AND status = ?", canonicalID, models.StatusPublished).
		Update("status", models.StatusArchived).Error
}

func (r *waterObjectRepository) Publish(id uint, reviewerID uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.WaterObject{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":       models.StatusPublished,
			"published_at": at,
			"reviewed_by":  reviewerID,
		})
	return result.RowsAffected, result.Error
}

func (r *waterObjectRepository) CountPublished(canonicalID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.WaterObject{}).
		Where("canonical_id = ? AND status = ?", canonicalID, models.StatusPublished).
		Count(&count).Error
	return count, err
}

func (r *waterObjectRepository) CountByStatus(status models.ObjectStatus) (int64, error) {
	var count int64
	err := r.db.Model(&models.WaterObject{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *waterObjectRepository) Delete(id uint) error {
	return r.db.Delete(&models.WaterObject{}, id).Error
}
