package domain

import "math"

const (
	recountPercentThreshold   = 10.0
	authorizationValueCeiling = 1000.0
)

// Discrepancy compares a physical count with the system quantity
type Discrepancy struct {
	Difference            int     `bson:"difference" json:"difference"`
	Percent               float64 `bson:"percent" json:"percent"`
	RequiresRecount       bool    `bson:"requiresRecount" json:"requiresRecount"`
	RequiresAuthorization bool    `bson:"requiresAuthorization" json:"requiresAuthorization"`
}

// EvaluateDiscrepancy flags counts that differ by more than 10% for recount and
// counts whose value difference exceeds 1000 for supervisor authorization.
func EvaluateDiscrepancy(counted, system int, unitValue float64) Discrepancy {
	d := Discrepancy{Difference: counted - system}

	// no percentage without positive system stock
	if system > 0 {
		d.Percent = float64(d.Difference) / float64(system) * 100
	}

	d.RequiresRecount = math.Abs(d.Percent) > recountPercentThreshold
	d.RequiresAuthorization = math.Abs(float64(d.Difference))*unitValue > authorizationValueCeiling
	return d
}

// HasDifference reports whether the count differs from the system quantity
func (d Discrepancy) HasDifference() bool {
	return d.Difference != 0
}
