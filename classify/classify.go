/*
Package classify defines the asset classification capability.

PURPOSE:
  The depreciation engine consumes classifications, it never produces them.
  In production the classifier may be a remote AI service with its own
  retry/timeout contract; this package models it as a capability interface -
  "given a description, return a classification or fail with a typed error" -
  so the engine tests against a deterministic implementation without any
  network dependency.

CONFIDENCE:
  The confidence score is opaque metadata. The engine passes it through to
  results untouched and never uses it in any calculation.
*/
package classify

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/depreciation-engine/macrs"
)

// Status records how a classification was produced.
type Status string

const (
	StatusRule         Status = "classified_by_rule"
	StatusAI           Status = "classified_by_ai"
	StatusUserModified Status = "user_modified"
	StatusUnclassified Status = "unclassified"
)

// Classification is the per-asset result the engine consumes.
type Classification struct {
	RecoveryPeriodYears  decimal.Decimal
	Method               macrs.Method
	ConventionHint       macrs.Convention
	BonusEligible        bool
	QualifiedImprovement bool
	PassengerAutomobile  bool
	HeavyVehicle         bool
	HeavyVehicleInferred bool
	Land                 bool

	Confidence float64
	Status     Status
}

// Classifier is the capability interface for classification backends.
type Classifier interface {
	Classify(ctx context.Context, description string) (Classification, error)
}

// UnclassifiedError is returned when a backend cannot classify a description.
type UnclassifiedError struct {
	Description string
}

func (e *UnclassifiedError) Error() string {
	return fmt.Sprintf("no classification for %q", e.Description)
}

// Apply copies a classification onto an asset record. Records flow through
// the importer unclassified; this is the one place classification fields
// are set.
func Apply(a *macrs.AssetRecord, c Classification) {
	a.RecoveryPeriodYears = c.RecoveryPeriodYears
	a.Method = c.Method
	a.ConventionHint = c.ConventionHint
	a.BonusEligible = c.BonusEligible
	a.QualifiedImprovement = c.QualifiedImprovement
	a.PassengerAutomobile = c.PassengerAutomobile
	a.HeavyVehicle = c.HeavyVehicle
	a.HeavyVehicleInferred = c.HeavyVehicleInferred
	a.Land = c.Land
	a.ClassifierConfidence = c.Confidence
}
