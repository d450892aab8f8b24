/*
Package taxyear maintains the versioned table of statutory constants.

PURPOSE:
  Converts externally maintained YAML tables (and the built-in defaults)
  into macrs.TaxYearContext values. This keeps statutory dollar limits out
  of code paths: tax staff can revise a table file without a code change,
  the same way the resource engine's policy factory turned JSON into
  policies.

FAIL-CLOSED:
  Registry.Context returns a ConfigurationError when the requested tax year
  has no entry. There is no safe default set of statutory constants, so the
  caller must abort the batch.

PER-RUN FIELDS:
  The taxable-income ceiling and the prior-year expensing carryforward are
  taxpayer-specific, not statutory. Context returns them zeroed; callers
  overlay them per run (see Registry.ContextFor).

YAML SCHEMA:
  years:
    2024:
      expensing_dollar_limit: 1220000
      expensing_phaseout_threshold: 3050000
      heavy_vehicle_expensing_limit: 30500
      de_minimis_threshold: 2500
      vehicle_year1_limit_with_bonus: 20400
      vehicle_year1_limit_without_bonus: 12400
      bonus_schedule:
        - from: 2024-01-01
          percent: 60
      bonus_override_cutoff: 2025-01-20
*/
package taxyear

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/depreciation-engine/macrs"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds one TaxYearContext per supported tax year. Immutable after
// construction; build a new registry to pick up a revised table file.
type Registry struct {
	years map[int]macrs.TaxYearContext
}

// NewRegistry returns a registry seeded with the built-in defaults.
func NewRegistry() *Registry {
	return &Registry{years: builtinDefaults()}
}

// LoadFile overlays entries from a YAML table file on top of the registry.
// File entries replace built-in years wholesale.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tax year table: %w", err)
	}
	return r.Load(raw)
}

// Load overlays entries from raw YAML.
func (r *Registry) Load(raw []byte) error {
	var doc tableDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse tax year table: %w", err)
	}
	for year, entry := range doc.Years {
		tc, err := entry.toContext(year)
		if err != nil {
			return err
		}
		if err := tc.Validate(); err != nil {
			return err
		}
		r.years[year] = tc
	}
	return nil
}

// Years returns the supported tax years in ascending order.
func (r *Registry) Years() []int {
	out := make([]int, 0, len(r.years))
	for y := range r.years {
		out = append(out, y)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Context returns the statutory constants for a tax year, failing closed
// when the year has no entry.
func (r *Registry) Context(year int) (macrs.TaxYearContext, error) {
	tc, ok := r.years[year]
	if !ok {
		return macrs.TaxYearContext{}, &macrs.ConfigurationError{
			TaxYear: year,
			Reason:  "no tax year configuration entry",
		}
	}
	return tc, nil
}

// ContextFor overlays the taxpayer-specific fields on the statutory entry.
func (r *Registry) ContextFor(year int, taxableIncomeCeiling, priorCarryforward decimal.Decimal) (macrs.TaxYearContext, error) {
	tc, err := r.Context(year)
	if err != nil {
		return macrs.TaxYearContext{}, err
	}
	tc.TaxableIncomeCeiling = taxableIncomeCeiling
	tc.PriorYearExpensingCarryforward = priorCarryforward
	return tc, nil
}

// =============================================================================
// YAML SCHEMA
// =============================================================================

type tableDoc struct {
	Years map[int]tableEntry `yaml:"years"`
}

type tableEntry struct {
	ExpensingDollarLimit          float64         `yaml:"expensing_dollar_limit"`
	ExpensingPhaseoutThreshold    float64         `yaml:"expensing_phaseout_threshold"`
	HeavyVehicleExpensingLimit    float64         `yaml:"heavy_vehicle_expensing_limit"`
	DeMinimisThreshold            float64         `yaml:"de_minimis_threshold"`
	VehicleYear1LimitWithBonus    float64         `yaml:"vehicle_year1_limit_with_bonus"`
	VehicleYear1LimitWithoutBonus float64         `yaml:"vehicle_year1_limit_without_bonus"`
	BonusSchedule                 []bonusRowEntry `yaml:"bonus_schedule"`
	BonusOverrideCutoff           string          `yaml:"bonus_override_cutoff"`
	NBVTolerance                  float64         `yaml:"nbv_tolerance"`
}

type bonusRowEntry struct {
	From    string  `yaml:"from"`
	Percent float64 `yaml:"percent"`
}

func (e tableEntry) toContext(year int) (macrs.TaxYearContext, error) {
	tc := macrs.TaxYearContext{
		TaxYear:                    year,
		ExpensingDollarLimit:       decimal.NewFromFloat(e.ExpensingDollarLimit),
		ExpensingPhaseoutThreshold: decimal.NewFromFloat(e.ExpensingPhaseoutThreshold),
		HeavyVehicleExpensingLimit: decimal.NewFromFloat(e.HeavyVehicleExpensingLimit),
		DeMinimisThreshold:         decimal.NewFromFloat(e.DeMinimisThreshold),
		VehicleLimits: macrs.VehicleYear1Limits{
			WithBonus:    decimal.NewFromFloat(e.VehicleYear1LimitWithBonus),
			WithoutBonus: decimal.NewFromFloat(e.VehicleYear1LimitWithoutBonus),
		},
		NBVTolerance: decimal.NewFromFloat(e.NBVTolerance),
	}

	for _, row := range e.BonusSchedule {
		from, err := time.Parse("2006-01-02", row.From)
		if err != nil {
			return macrs.TaxYearContext{}, &macrs.ConfigurationError{
				TaxYear: year,
				Reason:  fmt.Sprintf("bad bonus schedule date %q", row.From),
			}
		}
		tc.BonusSchedule = append(tc.BonusSchedule, macrs.BonusRate{
			From:    from,
			Percent: decimal.NewFromFloat(row.Percent),
		})
	}
	tc.BonusSchedule = macrs.SortedBonusSchedule(tc.BonusSchedule)

	if e.BonusOverrideCutoff != "" {
		cutoff, err := time.Parse("2006-01-02", e.BonusOverrideCutoff)
		if err != nil {
			return macrs.TaxYearContext{}, &macrs.ConfigurationError{
				TaxYear: year,
				Reason:  fmt.Sprintf("bad bonus override cutoff %q", e.BonusOverrideCutoff),
			}
		}
		tc.BonusOverrideCutoff = &cutoff
	}

	return tc, nil
}
