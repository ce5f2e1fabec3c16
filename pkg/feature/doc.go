// Package feature resolves plan-gated feature flags for schools.
//
// Each flag declares the lowest plan tier that enables it by default; tiers
// are cumulative up the trial < starter < pro < growth ladder. Per-school
// admin overrides layer on top of the plan defaults and only accept boolean
// values.
package feature
