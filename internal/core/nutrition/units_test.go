package nutrition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToGrams(t *testing.T) {
	tests := []struct {
		name     string
		quantity float64
		unit     string
		ing      string
		want     float64
	}{
		{"cup of flour", 2, "cup", "flour", 480},
		{"cups plural", 1.5, "cups", "milk", 360},
		{"tablespoon", 3, "tbsp", "butter", 45},
		{"teaspoon", 2, "tsp", "salt", 10},
		{"ounce", 2, "oz", "cheese", 56.7},
		{"pound", 1, "lb", "beef", 453.6},
		{"kilogram", 0.5, "kg", "potato", 500},
		{"milliliter as gram", 250, "ml", "milk", 250},
		{"liter", 1, "l", "milk", 1000},
		{"grams direct", 125, "g", "sugar", 125},
		{"pinch", 2, "pinch", "salt", 1},
		{"count unit egg", 3, "", "eggs", 150},
		{"explicit piece", 2, "piece", "banana", 240},
		{"whole apple", 1, "whole", "apple", 180},
		{"unknown food default piece", 2, "pcs", "xyzzy", 200},
		{"unknown unit with piece-weight name", 1, "egg-sized-unlisted-unit", "egg", 50},
		{"unknown unit passes through", 50, "blorp", "flour", 50},
		{"case insensitive unit", 1, "Cup", "flour", 240},
		{"padded unit", 1, " tbsp ", "honey", 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ToGrams(tt.quantity, tt.unit, tt.ing), 0.001)
		})
	}
}

func TestPieceWeightSubstring(t *testing.T) {
	// 單件重量以名稱子字串比對
	assert.InDelta(t, 50.0, pieceWeight("large egg"), 0.001)
	assert.InDelta(t, 120.0, pieceWeight("ripe bananas"), 0.001)
	assert.InDelta(t, 170.0, pieceWeight("boneless chicken breast"), 0.001)
	assert.InDelta(t, float64(defaultPieceGrams), pieceWeight("mystery food"), 0.001)
}
