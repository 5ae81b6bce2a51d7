package services

import (
	"errors"

	"gorm.io/gorm"

	"watermap-api/models"
	"watermap-api/repositories"
)

type AdminService interface {
	ListUsers() ([]models.User, error)
	UpdateUserRole(targetID uint, role models.UserRole, actorID uint) (*models.User, error)
	Stats() (*models.AdminStats, error)
}

type adminService struct {
	userRepo  repositories.UserRepository
	waterRepo repositories.WaterObjectRepository
}

func NewAdminService(userRepo repositories.UserRepository, waterRepo repositories.WaterObjectRepository) AdminService {
	return &adminService{
		userRepo:  userRepo,
		waterRepo: waterRepo,
	}
}

func (s *adminService) ListUsers() ([]models.User, error) {
	return s.userRepo.GetAll()
}

func (s *adminService) UpdateUserRole(targetID uint, role models.UserRole, actorID uint) (*models.User, error) {
	if !role.IsValid() {
		return nil, &models.ValidationError{Errors: []string{"Invalid role. Must be: user, expert, or admin"}}
	}

	// An admin cannot demote themselves; there must be no way to orphan
	// the admin capability through this endpoint.
	if targetID == actorID && role != models.RoleAdmin {
		return nil, models.ErrSelfDemotion
	}

	rows, err := s.userRepo.UpdateRole(targetID, role)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, models.ErrUserNotFound
	}

	user, err := s.userRepo.GetByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *adminService) Stats() (*models.AdminStats, error) {
	stats := &models.AdminStats{}

	var err error
	if stats.PublishedCount, err = s.waterRepo.CountByStatus(models.StatusPublished); err != nil {
		return nil, err
	}
	if stats.PendingCount, err = s.waterRepo.CountByStatus(models.StatusPending); err != nil {
		return nil, err
	}
	if stats.DraftCount, err = s.waterRepo.CountByStatus(models.StatusDraft); err != nil {
		return nil, err
	}
	if stats.ExpertCount, err = s.userRepo.CountByRole(models.RoleExpert); err != nil {
		return nil, err
	}
	if stats.AdminCount, err = s.userRepo.CountByRole(models.RoleAdmin); err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = s.userRepo.Count(); err != nil {
		return nil, err
	}
	return stats, nil
}
