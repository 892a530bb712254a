package instance

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrInvalidGeometry is returned when the geometry columns are inconsistent or unparsable.
var ErrInvalidGeometry = errors.New("invalid geometry")

// ParseGeometry decodes a GeoJSON geometry payload and checks it against geometryType.
// PRE: none
// POST: Returns the decoded geometry, or an error wrapping ErrInvalidGeometry
func ParseGeometry(geometryType, payload string) (orb.Geometry, error) {
	if geometryType == "" || payload == "" {
		return nil, fmt.Errorf("%w: geometry type and payload must be set together", ErrInvalidGeometry)
	}
	g, err := geojson.UnmarshalGeometry([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	geom := g.Geometry()
	if geom == nil {
		return nil, fmt.Errorf("%w: empty geometry", ErrInvalidGeometry)
	}
	if geom.GeoJSONType() != geometryType {
		return nil, fmt.Errorf("%w: type %q does not match payload type %q", ErrInvalidGeometry, geometryType, geom.GeoJSONType())
	}
	return geom, nil
}
