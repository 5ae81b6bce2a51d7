package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"

	"watermap-api/models"
	"watermap-api/repositories"
)

// CatalogService is the public read side: only published rows, served as
// GeoJSON. It has no write capability.
type CatalogService interface {
	ListPublished(objectType models.ObjectType) (*geojson.FeatureCollection, error)
	GetPublished(canonicalID uuid.UUID) (*geojson.Feature, error)
}

type catalogService struct {
	waterRepo repositories.WaterObjectRepository
}

func NewCatalogService(waterRepo repositories.WaterObjectRepository) CatalogService {
	return &catalogService{waterRepo: waterRepo}
}

func (s *catalogService) ListPublished(objectType models.ObjectType) (*geojson.FeatureCollection, error) {
	objects, err := s.waterRepo.ListPublished(objectType)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for i := range objects {
		feature, err := featureFromObject(&objects[i])
		if err != nil {
			return nil, err
		}
		fc.Append(feature)
	}
	fc.ExtraMembers = geojson.Properties{
		"metadata": map[string]interface{}{
			"total":      len(fc.Features),
			"fetched_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	return fc, nil
}

func (s *catalogService) GetPublished(canonicalID uuid.UUID) (*geojson.Feature, error) {
	obj, err := s.waterRepo.GetPublishedByCanonicalID(canonicalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return featureFromObject(obj)
}

func featureFromObject(obj *models.WaterObject) (*geojson.Feature, error) {
	geom, err := geojson.UnmarshalGeometry(obj.Geometry)
	if err != nil {
		return nil, fmt.Errorf("stored geometry for object %d: %w", obj.ID, err)
	}

	feature := geojson.NewFeature(geom.Geometry())
	feature.ID = obj.CanonicalID.String()
	for key, value := range obj.DisplayProperties() {
		feature.Properties[key] = value
	}
	return feature, nil
}
