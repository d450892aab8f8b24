/*
rules.go - Deterministic keyword-rule classifier

PURPOSE:
  A rule-based Classifier backend: first keyword hit wins, walked in a
  fixed order so the same description always classifies the same way.
  Serves as the offline/test backend and as the fallback tier in front of
  an AI backend.

  The rules here cover the common ledger vocabulary (vehicles, computers,
  furniture, machinery, improvements, buildings, land). Anything unmatched
  returns UnclassifiedError rather than guessing a recovery period.
*/
package classify

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/depreciation-engine/macrs"
)

// rule maps description keywords to a classification.
type rule struct {
	keywords []string
	result   Classification
}

// RuleClassifier classifies by keyword matching. Deterministic: rules are
// evaluated in declaration order and the first hit wins.
type RuleClassifier struct {
	rules []rule
}

// NewRuleClassifier returns a classifier loaded with the default rule set.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{rules: defaultRules()}
}

// Classify matches the description against the rule set.
func (rc *RuleClassifier) Classify(_ context.Context, description string) (Classification, error) {
	needle := strings.ToLower(description)
	for _, r := range rc.rules {
		for _, kw := range r.keywords {
			if strings.Contains(needle, kw) {
				c := r.result
				c.Status = StatusRule
				return c, nil
			}
		}
	}
	return Classification{Status: StatusUnclassified}, &UnclassifiedError{Description: description}
}

func years(v string) decimal.Decimal { return macrs.MustDecimal(v) }

func defaultRules() []rule {
	return []rule{
		// Heavy vehicles before passenger autos: "truck" must not fall
		// through to the automobile rule.
		{
			keywords: []string{"truck", "suv", "van", "pickup"},
			result: Classification{
				RecoveryPeriodYears:  years("5"),
				Method:               macrs.MethodDB200,
				BonusEligible:        true,
				HeavyVehicle:         true,
				HeavyVehicleInferred: true, // keyword match, not confirmed weight
				Confidence:           0.7,
			},
		},
		{
			keywords: []string{"car", "automobile", "sedan", "vehicle"},
			result: Classification{
				RecoveryPeriodYears: years("5"),
				Method:              macrs.MethodDB200,
				BonusEligible:       true,
				PassengerAutomobile: true,
				Confidence:          0.8,
			},
		},
		{
			keywords: []string{"computer", "laptop", "server", "printer", "monitor"},
			result: Classification{
				RecoveryPeriodYears: years("5"),
				Method:              macrs.MethodDB200,
				BonusEligible:       true,
				Confidence:          0.9,
			},
		},
		{
			keywords: []string{"software"},
			result: Classification{
				RecoveryPeriodYears: years("3"),
				Method:              macrs.MethodSL,
				BonusEligible:       true,
				Confidence:          0.85,
			},
		},
		{
			keywords: []string{"furniture", "desk", "chair", "shelving", "fixture"},
			result: Classification{
				RecoveryPeriodYears: years("7"),
				Method:              macrs.MethodDB200,
				BonusEligible:       true,
				Confidence:          0.85,
			},
		},
		{
			keywords: []string{"machine", "machinery", "equipment", "forklift", "press"},
			result: Classification{
				RecoveryPeriodYears: years("7"),
				Method:              macrs.MethodDB200,
				BonusEligible:       true,
				Confidence:          0.75,
			},
		},
		{
			keywords: []string{"leasehold improvement", "interior improvement", "qualified improvement", "hvac", "build-out", "buildout"},
			result: Classification{
				RecoveryPeriodYears:  years("15"),
				Method:               macrs.MethodSL,
				BonusEligible:        true,
				QualifiedImprovement: true,
				Confidence:           0.7,
			},
		},
		{
			keywords: []string{"fence", "parking lot", "sidewalk", "landscaping"},
			result: Classification{
				RecoveryPeriodYears: years("15"),
				Method:              macrs.MethodDB150,
				BonusEligible:       true,
				Confidence:          0.7,
			},
		},
		{
			keywords: []string{"residential", "apartment", "rental house"},
			result: Classification{
				RecoveryPeriodYears: years("27.5"),
				Method:              macrs.MethodSL,
				Confidence:          0.8,
			},
		},
		{
			keywords: []string{"building", "warehouse", "office structure", "roof"},
			result: Classification{
				RecoveryPeriodYears: years("39"),
				Method:              macrs.MethodSL,
				Confidence:          0.75,
			},
		},
		{
			keywords: []string{"land"},
			result: Classification{
				Land:       true,
				Confidence: 0.9,
			},
		},
	}
}
