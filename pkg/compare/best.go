package compare

import "github.com/arena-ai/arena/pkg/models"

// BestModel returns the backend with the strictly highest quality. Ties keep
// the earliest model in canonical order, so the result is deterministic.
func BestModel(result models.ComparisonResult) models.ModelID {
	best := models.AllModels[0]
	for _, id := range models.AllModels[1:] {
		if result[id].Quality > result[best].Quality {
			best = id
		}
	}
	return best
}
