package models

import "encoding/json"

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateWaterObjectRequest struct {
	NameKZ     string          `json:"name_kz"`
	NameRU     *string         `json:"name_ru"`
	NameEN     *string         `json:"name_en"`
	ObjectType ObjectType      `json:"object_type"`
	Geometry   json.RawMessage `json:"geometry"`

	LengthKm        *float64 `json:"length_km"`
	AreaKm2         *float64 `json:"area_km2"`
	MaxDepthM       *float64 `json:"max_depth_m"`
	AvgDepthM       *float64 `json:"avg_depth_m"`
	WaterVolumeKm3  *float64 `json:"water_volume_km3"`
	BasinAreaKm2    *float64 `json:"basin_area_km2"`
	AvgDischargeM3s *float64 `json:"avg_discharge_m3s"`

	SalinityLevel    *string  `json:"salinity_level"`
	PollutionIndex   *float64 `json:"pollution_index"`
	EcologicalStatus *string  `json:"ecological_status"`

	DescriptionKZ   *string         `json:"description_kz"`
	DescriptionRU   *string         `json:"description_ru"`
	DescriptionEN   *string         `json:"description_en"`
	HistoricalNotes *string         `json:"historical_notes"`
	Sources         json.RawMessage `json:"sources"`
}

// UpdateWaterObjectRequest is an explicit field patch: nil means "leave the
// stored value unchanged". Geometry, when present, is revalidated against
// the row's existing object type.
type UpdateWaterObjectRequest struct {
	NameKZ   *string         `json:"name_kz"`
	NameRU   *string         `json:"name_ru"`
	NameEN   *string         `json:"name_en"`
	Geometry json.RawMessage `json:"geometry"`

	LengthKm        *float64 `json:"length_km"`
	AreaKm2         *float64 `json:"area_km2"`
	MaxDepthM       *float64 `json:"max_depth_m"`
	AvgDepthM       *float64 `json:"avg_depth_m"`
	WaterVolumeKm3  *float64 `json:"water_volume_km3"`
	BasinAreaKm2    *float64 `json:"basin_area_km2"`
	AvgDischargeM3s *float64 `json:"avg_discharge_m3s"`

	SalinityLevel    *string  `json:"salinity_level"`
	PollutionIndex   *float64 `json:"pollution_index"`
	EcologicalStatus *string  `json:"ecological_status"`

	DescriptionKZ   *string         `json:"description_kz"`
	DescriptionRU   *string         `json:"description_ru"`
	DescriptionEN   *string         `json:"description_en"`
	HistoricalNotes *string         `json:"historical_notes"`
	Sources         json.RawMessage `json:"sources"`
}

type ApproveRequest struct {
	Notes *string `json:"notes"`
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

type UpdateRoleRequest struct {
	Role UserRole `json:"role"`
}

// PendingDiff pairs a pending submission with the currently published
// version of the same lineage, if any.
type PendingDiff struct {
	Pending     *WaterObject `json:"pending"`
	Published   *WaterObject `json:"published"`
	IsNewObject bool         `json:"is_new_object"`
}

type AdminStats struct {
	PublishedCount int64 `json:"published_count"`
	PendingCount   int64 `json:"pending_count"`
	DraftCount     int64 `json:"draft_count"`
	ExpertCount    int64 `json:"expert_count"`
	AdminCount     int64 `json:"admin_count"`
	TotalUsers     int64 `json:"total_users"`
}
