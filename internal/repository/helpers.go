package repository

import (
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

// landmarksToVector flattens points into x0,y0,x1,y1,... . pgvector has no
// zero-dimension vector, so an empty list is stored as NULL.
func landmarksToVector(points []domain.Point) *pgvector.Vector {
	if len(points) == 0 {
		return nil
	}
	floats := make([]float32, 0, len(points)*2)
	for _, p := range points {
		floats = append(floats, float32(p.X), float32(p.Y))
	}
	vec := pgvector.NewVector(floats)
	return &vec
}

func vectorToLandmarks(vec *pgvector.Vector) []domain.Point {
	if vec == nil {
		return []domain.Point{}
	}
	floats := vec.Slice()
	points := make([]domain.Point, 0, len(floats)/2)
	for i := 0; i+1 < len(floats); i += 2 {
		points = append(points, domain.Point{X: int(floats[i]), Y: int(floats[i+1])})
	}
	return points
}

func sessionArg(sessionID *string) any {
	if sessionID == nil || *sessionID == "" {
		return nil
	}
	return *sessionID
}

func normalizeLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
