package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateDiscrepancy(t *testing.T) {
	tests := []struct {
		name          string
		counted       int
		system        int
		unitValue     float64
		difference    int
		percent       float64
		recount       bool
		authorization bool
	}{
		{"matching count", 100, 100, 5, 0, 0, false, false},
		{"small shortage", 95, 100, 5, -5, -5, false, false},
		{"large shortage", 80, 100, 5, -20, -20, true, false},
		{"valuable difference", 98, 100, 600, -2, -2, false, true},
		{"empty system stock", 4, 0, 1, 4, 0, false, false},
		{"empty system stock valuable", 5, 0, 300, 5, 0, false, true},
		{"negative system stock", 3, -2, 1, 5, 0, false, false},
		{"both empty", 0, 0, 1, 0, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateDiscrepancy(tt.counted, tt.system, tt.unitValue)

			assert.Equal(t, tt.difference, d.Difference)
			assert.InDelta(t, tt.percent, d.Percent, 0.001)
			assert.Equal(t, tt.recount, d.RequiresRecount)
			assert.Equal(t, tt.authorization, d.RequiresAuthorization)
			assert.Equal(t, tt.difference != 0, d.HasDifference())
		})
	}
}
