package feature

import (
	"github.com/enrollkit/enrollkit/pkg/billing"
)

// Flag names the feature flags a school's plan can gate.
type Flag string

const (
	// Available on every plan, trial included.
	FlagStatus    Flag = "status_enabled"
	FlagCSVExport Flag = "csv_export_enabled"
	FlagAuditLog  Flag = "audit_log_enabled"

	// Starter and above.
	FlagReports            Flag = "reports_enabled"
	FlagEmailNotifications Flag = "email_notifications_enabled"
	FlagFileUploads        Flag = "file_uploads_enabled"

	// Pro and above.
	FlagCustomBranding Flag = "custom_branding_enabled"
	FlagMultiForm      Flag = "multi_form_enabled"
	FlagCustomStatuses Flag = "custom_statuses_enabled"
)

// planRank orders the plan ladder. A plan unlocks every flag whose minimum
// plan ranks at or below it.
var planRank = map[billing.Plan]int{
	billing.PlanTrial:   0,
	billing.PlanStarter: 1,
	billing.PlanPro:     2,
	billing.PlanGrowth:  3,
}

// minPlan is the lowest tier where each flag is enabled by default.
// Adding a new flag is one line here.
var minPlan = map[Flag]billing.Plan{
	FlagStatus:    billing.PlanTrial,
	FlagCSVExport: billing.PlanTrial,
	FlagAuditLog:  billing.PlanTrial,

	FlagReports:            billing.PlanStarter,
	FlagEmailNotifications: billing.PlanStarter,
	FlagFileUploads:        billing.PlanStarter,

	FlagCustomBranding: billing.PlanPro,
	FlagMultiForm:      billing.PlanPro,
	FlagCustomStatuses: billing.PlanPro,
}

// AllFlags returns every known flag name.
func AllFlags() []Flag {
	out := make([]Flag, 0, len(minPlan))
	for f := range minPlan {
		out = append(out, f)
	}
	return out
}

// rank resolves a plan to its ladder position. Unknown or empty plans are
// treated as trial so a corrupt plan value degrades access instead of
// widening it.
func rank(plan billing.Plan) int {
	r, ok := planRank[plan]
	if !ok {
		return planRank[billing.PlanTrial]
	}
	return r
}

// DefaultsForPlan computes the default capability map for a plan. Tiers are
// cumulative: a plan gets every flag its rank reaches.
func DefaultsForPlan(plan billing.Plan) map[Flag]bool {
	r := rank(plan)
	out := make(map[Flag]bool, len(minPlan))
	for flag, min := range minPlan {
		out[flag] = r >= rank(min)
	}
	return out
}

// Merge layers per-school admin overrides on top of the plan defaults. Only
// boolean override values are honored; anything else is ignored so a
// malformed override blob can never break flag resolution.
func Merge(plan billing.Plan, overrides map[string]any) map[Flag]bool {
	merged := DefaultsForPlan(plan)
	for k, v := range overrides {
		if b, ok := v.(bool); ok {
			merged[Flag(k)] = b
		}
	}
	return merged
}

// IsEnabled resolves a single flag for a school's plan and overrides.
// Unknown flags report false.
func IsEnabled(plan billing.Plan, overrides map[string]any, flag Flag) bool {
	return Merge(plan, overrides)[flag]
}
