package detector

import (
	"encoding/json"
	"fmt"

	"vpdetect/internal/models"
)

// response covers both server behaviours: vanishing point mode answers with
// {"vanishing_point": [x, y] | null}, line mode with {"x1","y1","x2","y2"}.
type response struct {
	VanishingPoint []float64 `json:"vanishing_point"`

	X1 *float64 `json:"x1"`
	Y1 *float64 `json:"y1"`
	X2 *float64 `json:"x2"`
	Y2 *float64 `json:"y2"`
}

// ParseResponse maps a detection service body onto a Result. Malformed JSON
// and a vanishing_point that is not a pair yield TransportError; a body
// carrying neither shape yields NotFound.
func ParseResponse(body []byte) models.Result {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.TransportError{Message: fmt.Sprintf("decode response: %v", err)}
	}

	if resp.VanishingPoint != nil {
		if len(resp.VanishingPoint) != 2 {
			return models.TransportError{
				Message: fmt.Sprintf("decode response: vanishing_point has %d values, want 2", len(resp.VanishingPoint)),
			}
		}
		return models.Point{X: resp.VanishingPoint[0], Y: resp.VanishingPoint[1]}
	}

	if resp.X1 != nil && resp.Y1 != nil && resp.X2 != nil && resp.Y2 != nil {
		return models.Segment{X1: *resp.X1, Y1: *resp.Y1, X2: *resp.X2, Y2: *resp.Y2}
	}

	return models.NotFound{}
}
