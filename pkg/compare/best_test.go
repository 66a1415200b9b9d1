package compare

import (
	"testing"

	"github.com/arena-ai/arena/pkg/models"
)

func resultWithQualities(gemini, imagen, ultra float64) models.ComparisonResult {
	return models.ComparisonResult{
		models.ModelGemini: {Quality: gemini},
		models.ModelImagen: {Quality: imagen},
		models.ModelUltra:  {Quality: ultra},
	}
}

func TestBestModel(t *testing.T) {
	tests := []struct {
		name   string
		result models.ComparisonResult
		want   models.ModelID
	}{
		{"gemini wins", resultWithQualities(0.9, 0.5, 0.4), models.ModelGemini},
		{"imagen wins", resultWithQualities(0.2, 0.8, 0.4), models.ModelImagen},
		{"ultra wins", resultWithQualities(0.2, 0.3, 0.95), models.ModelUltra},
		{"three-way tie keeps canonical order", resultWithQualities(0.7, 0.7, 0.7), models.ModelGemini},
		{"two-way tie keeps earlier model", resultWithQualities(0.2, 0.9, 0.9), models.ModelImagen},
		{"zero qualities", resultWithQualities(0, 0, 0), models.ModelGemini},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestModel(tt.result); got != tt.want {
				t.Errorf("BestModel() = %s, want %s", got, tt.want)
			}
		})
	}
}
