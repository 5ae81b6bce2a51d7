package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ObjectType string

const (
	ObjectTypeRiver     ObjectType = "river"
	ObjectTypeCanal     ObjectType = "canal"
	ObjectTypeLake      ObjectType = "lake"
	ObjectTypeReservoir ObjectType = "reservoir"
	ObjectTypeGlacier   ObjectType = "glacier"
	ObjectTypeSpring    ObjectType = "spring"
)

func (o ObjectType) IsValid() bool {
	switch o {
	case ObjectTypeRiver, ObjectTypeCanal, ObjectTypeLake, ObjectTypeReservoir, ObjectTypeGlacier, ObjectTypeSpring:
		return true
	}
	return false
}

type ObjectStatus string

const (
	StatusDraft     ObjectStatus = "draft"
	StatusPending   ObjectStatus = "pending"
	StatusPublished ObjectStatus = "published"
	StatusArchived  ObjectStatus = "archived"
	StatusRejected  ObjectStatus = "rejected"
)

// WaterObject is one version row of a water feature. All versions of the
// same real-world feature share a CanonicalID; at most one of them may be
// published at any time.
type WaterObject struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	CanonicalID uuid.UUID `json:"canonical_id" gorm:"type:uuid;index;not null"`
	Version     int       `json:"version" gorm:"not null;default:1"`

	NameKZ string  `json:"name_kz" gorm:"not null"`
	NameRU *string `json:"name_ru,omitempty"`
	NameEN *string `json:"name_en,omitempty"`

	ObjectType ObjectType     `json:"object_type" gorm:"not null"`
	Geometry   datatypes.JSON `json:"geometry" gorm:"not null"`

	LengthKm        *float64 `json:"length_km,omitempty"`
	AreaKm2         *float64 `json:"area_km2,omitempty"`
	MaxDepthM       *float64 `json:"max_depth_m,omitempty"`
	AvgDepthM       *float64 `json:"avg_depth_m,omitempty"`
	WaterVolumeKm3  *float64 `json:"water_volume_km3,omitempty"`
	BasinAreaKm2    *float64 `json:"basin_area_km2,omitempty"`
	AvgDischargeM3s *float64 `json:"avg_discharge_m3s,omitempty"`

	SalinityLevel    *string  `json:"salinity_level,omitempty"`
	PollutionIndex   *float64 `json:"pollution_index,omitempty"`
	EcologicalStatus *string  `json:"ecological_status,omitempty"`

	DescriptionKZ   *string        `json:"description_kz,omitempty"`
	DescriptionRU   *string        `json:"description_ru,omitempty"`
	DescriptionEN   *string        `json:"description_en,omitempty"`
	HistoricalNotes *string        `json:"historical_notes,omitempty"`
	Sources         datatypes.JSON `json:"sources,omitempty"`

	Status          ObjectStatus `json:"status" gorm:"default:'draft';index"`
	RejectionReason *string      `json:"rejection_reason,omitempty"`

	CreatedBy  uint  `json:"created_by" gorm:"not null"`
	Creator    *User `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	UpdatedBy  *uint `json:"updated_by,omitempty"`
	ReviewedBy *uint `json:"reviewed_by,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// BeforeCreate allocates a canonical id for first-of-lineage rows. Revision
// rows arrive with the lineage's canonical id already set.
func (w *WaterObject) BeforeCreate(tx *gorm.DB) error {
	if w.CanonicalID == uuid.Nil {
		w.CanonicalID = uuid.New()
	}
	if w.Version == 0 {
		w.Version = 1
	}
	return nil
}

// DisplayProperties returns the display fields for the public catalog,
// everything except the geometry itself.
func (w *WaterObject) DisplayProperties() map[string]interface{} {
	return map[string]interface{}{
		"id":                w.ID,
		"canonical_id":      w.CanonicalID,
		"version":           w.Version,
		"name_kz":           w.NameKZ,
		"name_ru":           w.NameRU,
		"name_en":           w.NameEN,
		"object_type":       w.ObjectType,
		"length_km":         w.LengthKm,
		"area_km2":          w.AreaKm2,
		"max_depth_m":       w.MaxDepthM,
		"avg_depth_m":       w.AvgDepthM,
		"water_volume_km3":  w.WaterVolumeKm3,
		"basin_area_km2":    w.BasinAreaKm2,
		"avg_discharge_m3s": w.AvgDischargeM3s,
		"salinity_level":    w.SalinityLevel,
		"pollution_index":   w.PollutionIndex,
		"ecological_status": w.EcologicalStatus,
		"description_kz":    w.DescriptionKZ,
		"description_ru":    w.DescriptionRU,
		"description_en":    w.DescriptionEN,
		"published_at":      w.PublishedAt,
	}
}
