package geometry

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"watermap-api/models"
)

// Allowed GeoJSON geometry types per water object type.
var allowedGeometryTypes = map[models.ObjectType][]string{
	models.ObjectTypeRiver:     {"LineString", "MultiLineString"},
	models.ObjectTypeCanal:     {"LineString", "MultiLineString"},
	models.ObjectTypeLake:      {"Polygon", "MultiPolygon"},
	models.ObjectTypeReservoir: {"Polygon", "MultiPolygon"},
	models.ObjectTypeGlacier:   {"Polygon", "MultiPolygon"},
	models.ObjectTypeSpring:    {"Point"},
}

// Kazakhstan bounding box (west, south, east, north).
var kazakhstanBounds = orb.Bound{
	Min: orb.Point{46.49, 40.57},
	Max: orb.Point{87.36, 55.44},
}

// Result reports every problem found in one pass. Geometry holds the
// extracted bare geometry when the input was structurally sound.
type Result struct {
	Valid    bool            `json:"valid"`
	Errors   []string        `json:"errors"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
}

func invalid(msg string) Result {
	return Result{Valid: false, Errors: []string{msg}}
}

// Validate checks a submitted GeoJSON value against the declared object
// type. It accepts a bare Geometry, a Feature, or a FeatureCollection (the
// first feature is taken; an empty collection is an error).
func Validate(raw json.RawMessage, objectType models.ObjectType) Result {
	var doc map[string]interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &doc) != nil || doc == nil {
		return invalid("Invalid GeoJSON structure")
	}

	var geom map[string]interface{}
	switch doc["type"] {
	case "Feature":
		geom, _ = doc["geometry"].(map[string]interface{})
	case "FeatureCollection":
		features, _ := doc["features"].([]interface{})
		if len(features) == 0 {
			return invalid("FeatureCollection is empty")
		}
		if first, ok := features[0].(map[string]interface{}); ok {
			geom, _ = first["geometry"].(map[string]interface{})
		}
	default:
		geom = doc
	}

	if geom == nil {
		return invalid("Missing geometry or coordinates")
	}
	geomType, _ := geom["type"].(string)
	coordinates := geom["coordinates"]
	if geomType == "" || coordinates == nil {
		return invalid("Missing geometry or coordinates")
	}

	var errs []string

	allowed, known := allowedGeometryTypes[objectType]
	if !known {
		errs = append(errs, fmt.Sprintf("Unknown object type: %s", objectType))
	} else if !containsType(allowed, geomType) {
		errs = append(errs, fmt.Sprintf(
			"Invalid geometry type %q for object type %q. Allowed: %s",
			geomType, objectType, strings.Join(allowed, ", ")))
	}

	pairs, err := flattenCoordinates(coordinates, geomType)
	if err != nil {
		errs = append(errs, fmt.Sprintf("Invalid coordinate structure: %s", err))
	} else {
		outsideKZ := false
		for _, pair := range pairs {
			point, ok := asPoint(pair)
			if !ok {
				errs = append(errs, "Coordinates must be numbers")
				break
			}
			if !kazakhstanBounds.Contains(point) {
				outsideKZ = true
			}
		}
		if outsideKZ {
			errs = append(errs, "Some coordinates are outside Kazakhstan boundaries")
		}
	}

	normalized, _ := json.Marshal(geom)
	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Geometry: normalized,
	}
}

// Centroid computes the arithmetic mean of a bare geometry's flattened
// coordinates, for display only. Returns nil on any structural failure.
func Centroid(raw json.RawMessage) *orb.Point {
	var geom map[string]interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &geom) != nil || geom == nil {
		return nil
	}
	geomType, _ := geom["type"].(string)
	coordinates := geom["coordinates"]
	if coordinates == nil {
		return nil
	}

	pairs, err := flattenCoordinates(coordinates, geomType)
	if err != nil || len(pairs) == 0 {
		return nil
	}

	var sum orb.Point
	for _, pair := range pairs {
		point, ok := asPoint(pair)
		if !ok {
			return nil
		}
		sum[0] += point[0]
		sum[1] += point[1]
	}

	n := float64(len(pairs))
	return &orb.Point{sum[0] / n, sum[1] / n}
}

// flattenCoordinates reduces a nested coordinates array to a flat list of
// [lng, lat] candidates: Point yields itself, LineString/MultiPoint are
// already flat, Polygon/MultiLineString flatten one level, MultiPolygon two.
func flattenCoordinates(coords interface{}, geomType string) ([]interface{}, error) {
	switch geomType {
	case "Point":
		return []interface{}{coords}, nil
	case "LineString", "MultiPoint":
		return asArray(coords)
	case "Polygon", "MultiLineString":
		outer, err := asArray(coords)
		if err != nil {
			return nil, err
		}
		return flattenOnce(outer)
	case "MultiPolygon":
		outer, err := asArray(coords)
		if err != nil {
			return nil, err
		}
		level1, err := flattenOnce(outer)
		if err != nil {
			return nil, err
		}
		return flattenOnce(level1)
	default:
		return asArray(coords)
	}
}

func flattenOnce(nested []interface{}) ([]interface{}, error) {
	var flat []interface{}
	for _, item := range nested {
		inner, err := asArray(item)
		if err != nil {
			return nil, err
		}
		flat = append(flat, inner...)
	}
	return flat, nil
}

func asArray(v interface{}) ([]interface{}, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an array, got %T", v)
	}
	return arr, nil
}

func asPoint(pair interface{}) (orb.Point, bool) {
	arr, ok := pair.([]interface{})
	if !ok || len(arr) < 2 {
		return orb.Point{}, false
	}
	lng, okLng := arr[0].(float64)
	lat, okLat := arr[1].(float64)
	if !okLng || !okLat {
		return orb.Point{}, false
	}
	return orb.Point{lng, lat}, true
}

func containsType(allowed []string, geomType string) bool {
	for _, t := range allowed {
		if t == geomType {
			return true
		}
	}
	return false
}
