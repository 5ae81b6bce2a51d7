package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"watermap-api/geometry"
	"watermap-api/models"
	"watermap-api/repositories"
)

// editableStatuses are the only states an owner may mutate or resubmit from.
var editableStatuses = []models.ObjectStatus{models.StatusDraft, models.StatusRejected}

type WaterObjectService interface {
	Create(req models.CreateWaterObjectRequest, userID uint) (*models.WaterObject, error)
	Update(id uint, req models.UpdateWaterObjectRequest, userID uint, role models.UserRole) (*models.WaterObject, error)
	Submit(id uint, userID uint, role models.UserRole) error
	Approve(id uint, reviewerID uint, notes *string) error
	Reject(id uint, reviewerID uint, reason string) error
	Delete(id uint, userID uint, role models.UserRole) error
	CreateRevision(id uint, userID uint) (*models.WaterObject, error)
	ListPending() ([]models.WaterObject, error)
	GetDiff(id uint) (*models.PendingDiff, error)
	ListByOwner(ownerID uint, statuses []models.ObjectStatus) ([]models.WaterObject, error)
	History(canonicalID uuid.UUID) ([]models.WaterObject, error)
}

type waterObjectService struct {
	waterRepo repositories.WaterObjectRepository
	logRepo   repositories.ChangeLogRepository
}

func NewWaterObjectService(waterRepo repositories.WaterObjectRepository, logRepo repositories.ChangeLogRepository) WaterObjectService {
	return &waterObjectService{
		waterRepo: waterRepo,
		logRepo:   logRepo,
	}
}

func (s *waterObjectService) Create(req models.CreateWaterObjectRequest, userID uint) (*models.WaterObject, error) {
	// Collect every problem in one pass so the caller can fix the
	// submission in a single round trip.
	var problems []string
	if req.NameKZ == "" {
		problems = append(problems, "name_kz is required")
	}
	if req.ObjectType == "" {
		problems = append(problems, "object_type is required")
	}
	if len(req.Geometry) == 0 {
		problems = append(problems, "geometry is required")
	}

	var normalized datatypes.JSON
	if req.ObjectType != "" && len(req.Geometry) > 0 {
		result := geometry.Validate(req.Geometry, req.ObjectType)
		if !result.Valid {
			problems = append(problems, result.Errors...)
		} else {
			normalized = datatypes.JSON(result.Geometry)
		}
	}

	if len(problems) > 0 {
		return nil, &models.ValidationError{Errors: problems}
	}

	obj := &models.WaterObject{
		NameKZ:           req.NameKZ,
		NameRU:           req.NameRU,
		NameEN:           req.NameEN,
		ObjectType:       req.ObjectType,
		Geometry:         normalized,
		LengthKm:         req.LengthKm,
		AreaKm2:          req.AreaKm2,
		MaxDepthM:        req.MaxDepthM,
		AvgDepthM:        req.AvgDepthM,
		WaterVolumeKm3:   req.WaterVolumeKm3,
		BasinAreaKm2:     req.BasinAreaKm2,
		AvgDischargeM3s:  req.AvgDischargeM3s,
		SalinityLevel:    req.SalinityLevel,
		PollutionIndex:   req.PollutionIndex,
		EcologicalStatus: req.EcologicalStatus,
		DescriptionKZ:    req.DescriptionKZ,
		DescriptionRU:    req.DescriptionRU,
		DescriptionEN:    req.DescriptionEN,
		HistoricalNotes:  req.HistoricalNotes,
		Sources:          datatypes.JSON(req.Sources),
		Status:           models.StatusDraft,
		Version:          1,
		CreatedBy:        userID,
	}

	err := s.waterRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.waterRepo.WithTx(tx).Create(obj); err != nil {
			return err
		}
		return s.logRepo.WithTx(tx).Append(&models.ChangeLog{
			WaterObjectID: obj.ID,
			CanonicalID:   obj.CanonicalID,
			Action:        models.ActionCreate,
			PerformedBy:   userID,
		})
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *waterObjectService) Update(id uint, req models.UpdateWaterObjectRequest, userID uint, role models.UserRole) (*models.WaterObject, error) {
	obj, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if !isEditable(obj.Status) {
		return nil, models.ErrInvalidTransition
	}
	if !canModify(obj, userID, role) {
		return nil, models.ErrForbidden
	}

	fields := map[string]interface{}{
		"status":           models.StatusDraft,
		"rejection_reason": nil,
		"updated_by":       userID,
	}

	if len(req.Geometry) > 0 {
		result := geometry.Validate(req.Geometry, obj.ObjectType)
		if !result.Valid {
			return nil, &models.ValidationError{Errors: result.Errors}
		}
		fields["geometry"] = datatypes.JSON(result.Geometry)
	}
	applyPatch(fields, req)

	err = s.waterRepo.Transaction(func(tx *gorm.DB) error {
		rows, err := s.waterRepo.WithTx(tx).UpdateFieldsWhereStatus(id, editableStatuses, fields)
		if err != nil {
			return err
		}
		if rows == 0 {
			// Status changed between the read and the write.
			return models.ErrInvalidTransition
		}
		return s.logRepo.WithTx(tx).Append(&models.ChangeLog{
			WaterObjectID: obj.ID,
			CanonicalID:   obj.CanonicalID,
			Action:        models.ActionUpdate,
			PerformedBy:   userID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.getByID(id)
}

func (s *waterObjectService) Submit(id uint, userID uint, role models.UserRole) error {
	obj, err := s.getByID(id)
	if err != nil {
		return err
	}
	if !isEditable(obj.Status) {
		return models.ErrInvalidTransition
	}
	if !canModify(obj, userID, role) {
		return models.ErrForbidden
	}

	return s.waterRepo.Transaction(func(tx *gorm.DB) error {
		rows, err := s.waterRepo.WithTx(tx).UpdateFieldsWhereStatus(id, editableStatuses, map[string]interface{}{
			"status":           models.StatusPending,
			"rejection_reason": nil,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrInvalidTransition
		}
		return s.logRepo.WithTx(tx).Append(&models.ChangeLog{
			WaterObjectID: obj.ID,
			CanonicalID:   obj.CanonicalID,
			Action:        models.ActionSubmit,
			PerformedBy:   userID,
		})
	})
}

// Approve archives the lineage's current published row, publishes this one
// and records the review, all in one transaction. The publish is guarded on
// status = pending so a stale admin action rolls the archive back instead
// of leaving the lineage without a published row.
func (s *waterObjectService) Approve(id uint, reviewerID uint, notes *string) error {
	obj, err := s.getByID(id)
	if err != nil {
		return err
	}
	if obj.Status != models.StatusPending {
		return models.ErrInvalidTransition
	}

	return s.waterRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.waterRepo.WithTx(tx)
		// Serialize approves per lineage. Without the locks two approves
		// of sibling pending rows could both pass the published recount
		// under read committed.
		if err := repo.LockLineage(obj.CanonicalID); err != nil {
			return err
		}
		if err := repo.ArchivePublished(obj.CanonicalID); err != nil {
			return err
		}
		rows, err := repo.Publish(id, reviewerID, time.Now())
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrInvalidTransition
		}
		published, err := repo.CountPublished(obj.CanonicalID)
		if err != nil {
			return err
		}
		if published > 1 {
			return models.ErrPublishConflict
		}
		return s.logRepo.WithTx(tx).Append(&models.ChangeLog{
			WaterObjectID: obj.ID,
			CanonicalID:   obj.CanonicalID,
			Action:        models.ActionApprove,
			PerformedBy:   reviewerID,
			ReviewerNotes: notes,
		})
	})
}

func (s *waterObjectService) Reject(id uint, reviewerID uint, reason string) error {
	if reason == "" {
		return models.ErrMissingReason
	}
	obj, err := s.getByID(id)
	if err != nil {
		return err
	}
	if obj.Status != models.StatusPending {
		return models.ErrInvalidTransition
	}

	return s.waterRepo.Transaction(func(tx *gorm.DB) error {
		rows, err := s.waterRepo.WithTx(tx).UpdateFieldsWhereStatus(id, []models.ObjectStatus{models.StatusPending}, map[string]interface{}{
			"status":           models.StatusRejected,
			"rejection_reason": reason,
			"reviewed_by":      reviewerID,
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return models.ErrInvalidTransition
		}
		return s.logRepo.WithTx(tx).Append(&models.ChangeLog{
			WaterObjectID: obj.ID,
			CanonicalID:   obj.CanonicalID,
			Action:        models.ActionReject,
			PerformedBy:   reviewerID,
			ReviewerNotes: &reason,
		})
	})
}

func (s *waterObjectService) Delete(id uint, userID uint, role models.UserRole) error {
	obj, err := s.getByID(id)
	if err != nil {
		return err
	}
	if obj.Status == models.StatusPublished {
		return models.ErrCannotDeletePublished
	}
	if !canModify(obj, userID, role) {
		return models.ErrForbidden
	}
	return s.waterRepo.Delete(id)
}

// CreateRevision opens a new edit cycle on a published feature: a fresh
// draft row under the same canonical id, version bumped past the lineage's
// highest, owned by the caller.
func (s *waterObjectService) CreateRevision(id uint, userID uint) (*models.WaterObject, error) {
	src, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if src.Status != models.StatusPublished {
		return nil, models.ErrInvalidTransition
	}

	revision := &models.WaterObject{
		CanonicalID:      src.CanonicalID,
		NameKZ:           src.NameKZ,
		NameRU:           src.NameRU,
		NameEN:           src.NameEN,
		ObjectType:       src.ObjectType,
		Geometry:         src.Geometry,
		LengthKm:         src.LengthKm,
		AreaKm2:          src.AreaKm2,
		MaxDepthM:        src.MaxDepthM,
		AvgDepthM:        src.AvgDepthM,
		WaterVolumeKm3:   src.WaterVolumeKm3,
		BasinAreaKm2:     src.BasinAreaKm2,
		AvgDischargeM3s:  src.AvgDischargeM3s,
		SalinityLevel:    src.SalinityLevel,
		PollutionIndex:   src.PollutionIndex,
		EcologicalStatus: src.EcologicalStatus,
		DescriptionKZ:    src.DescriptionKZ,
		DescriptionRU:    src.DescriptionRU,
		DescriptionEN:    src.DescriptionEN,
		HistoricalNotes:  src.HistoricalNotes,
		Sources:          src.Sources,
		Status:           models.StatusDraft,
		CreatedBy:        userID,
	}

	err = s.waterRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.waterRepo.WithTx(tx)
		next, err := repo.NextVersion(src.CanonicalID)
		if err != nil {
			return err
		}
		revision.Version = next
		if err := repo.Create(revision); err != nil {
			return err
		}
		return s.logRepo.WithTx(tx).Append(&models.ChangeLog{
			WaterObjectID: revision.ID,
			CanonicalID:   revision.CanonicalID,
			Action:        models.ActionCreate,
			PerformedBy:   userID,
		})
	})
	if err != nil {
		return nil, err
	}
	return revision, nil
}

func (s *waterObjectService) ListPending() ([]models.WaterObject, error) {
	return s.waterRepo.ListByStatus(models.StatusPending)
}

func (s *waterObjectService) GetDiff(id uint) (*models.PendingDiff, error) {
	obj, err := s.getByID(id)
	if err != nil {
		return nil, err
	}
	if obj.Status != models.StatusPending {
		return nil, models.ErrNotFound
	}

	published, err := s.waterRepo.GetPublishedByCanonicalID(obj.CanonicalID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		published = nil
	}

	return &models.PendingDiff{
		Pending:     obj,
		Published:   published,
		IsNewObject: published == nil,
	}, nil
}

func (s *waterObjectService) ListByOwner(ownerID uint, statuses []models.ObjectStatus) ([]models.WaterObject, error) {
	return s.waterRepo.ListByOwner(ownerID, statuses)
}

func (s *waterObjectService) History(canonicalID uuid.UUID) ([]models.WaterObject, error) {
	return s.waterRepo.History(canonicalID)
}

func (s *waterObjectService) getByID(id uint) (*models.WaterObject, error) {
	obj, err := s.waterRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

func isEditable(status models.ObjectStatus) bool {
	return status == models.StatusDraft || status == models.StatusRejected
}

func canModify(obj *models.WaterObject, userID uint, role models.UserRole) bool {
	return obj.CreatedBy == userID || role == models.RoleAdmin
}

// applyPatch copies only the fields the caller actually sent.
func applyPatch(fields map[string]interface{}, req models.UpdateWaterObjectRequest) {
	if req.NameKZ != nil {
		fields["name_kz"] = *req.NameKZ
	}
	if req.NameRU != nil {
		fields["name_ru"] = *req.NameRU
	}
	if req.NameEN != nil {
		fields["name_en"] = *req.NameEN
	}
	if req.LengthKm != nil {
		fields["length_km"] = *req.LengthKm
	}
	if req.AreaKm2 != nil {
		fields["area_km2"] = *req.AreaKm2
	}
	if req.MaxDepthM != nil {
		fields["max_depth_m"] = *req.MaxDepthM
	}
	if req.AvgDepthM != nil {
		fields["avg_depth_m"] = *req.AvgDepthM
	}
	if req.WaterVolumeKm3 != nil {
		fields["water_volume_km3"] = *req.WaterVolumeKm3
	}
	if req.BasinAreaKm2 != nil {
		fields["basin_area_km2"] = *req.BasinAreaKm2
	}
	if req.AvgDischargeM3s != nil {
		fields["avg_discharge_m3s"] = *req.AvgDischargeM3s
	}
	if req.SalinityLevel != nil {
		fields["salinity_level"] = *req.SalinityLevel
	}
	if req.PollutionIndex != nil {
		fields["pollution_index"] = *req.PollutionIndex
	}
	if req.EcologicalStatus != nil {
		fields["ecological_status"] = *req.EcologicalStatus
	}
	if req.DescriptionKZ != nil {
		fields["description_kz"] = *req.DescriptionKZ
	}
	if req.DescriptionRU != nil {
		fields["description_ru"] = *req.DescriptionRU
	}
	if req.DescriptionEN != nil {
		fields["description_en"] = *req.DescriptionEN
	}
	if req.HistoricalNotes != nil {
		fields["historical_notes"] = *req.HistoricalNotes
	}
	if len(req.Sources) > 0 {
		fields["sources"] = datatypes.JSON(req.Sources)
	}
}
