package billing

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the subscription tier a school is on. Tiers form a ladder;
// pkg/feature derives default capabilities from the tier rank.
type Plan string

const (
	PlanTrial   Plan = "trial"
	PlanStarter Plan = "starter"
	PlanPro     Plan = "pro"
	PlanGrowth  Plan = "growth"
)

// Valid reports whether p is one of the known tiers.
func (p Plan) Valid() bool {
	switch p {
	case PlanTrial, PlanStarter, PlanPro, PlanGrowth:
		return true
	}
	return false
}

// Record is the durable billing state for a single school, 1:1 with the
// tenant. It is created at onboarding and mutated only by webhook handlers
// (plus the operator override through the store).
//
// IsActive is the authoritative lock flag: when false the school loses
// access to everything except the billing self-service pages, regardless
// of Plan or SubscriptionStatus.
type Record struct {
	TenantID uuid.UUID // primary key, one record per school
	Slug     string    // school slug, carried as checkout metadata

	Plan Plan // retained across cancellation (never reset to trial)

	CustomerID         string // processor customer id, empty until first checkout
	SubscriptionID     string // processor subscription id, primary correlation key
	SubscriptionStatus string // processor's own vocabulary, informational only

	IsActive bool // lock flag, authoritative for access control

	CancelAt          *time.Time // processor-reported cancellation moment
	CancelAtPeriodEnd bool       // cancellation deferred to period end
	CurrentPeriodEnd  *time.Time // end of the currently paid period

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord returns the onboarding state for a school: trial tier, unlocked,
// no processor linkage.
func NewRecord(tenantID uuid.UUID, slug string) Record {
	now := time.Now().UTC()
	return Record{
		TenantID:  tenantID,
		Slug:      slug,
		Plan:      PlanTrial,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasSubscription reports whether the school has ever completed a checkout.
func (r Record) HasSubscription() bool {
	return r.SubscriptionID != ""
}

// HasActiveSubscription reports whether the processor considers the
// subscription live. Used for billing-page display, not for access control.
func (r Record) HasActiveSubscription() bool {
	switch r.SubscriptionStatus {
	case "active", "trialing", "past_due":
		return r.SubscriptionID != ""
	}
	return false
}

// EffectiveCancelTime returns the moment the subscription is scheduled to
// end: CancelAt when the processor reported one, otherwise the period end
// when cancellation is deferred to end of period. The second return is
// false when no cancellation is scheduled.
func (r Record) EffectiveCancelTime() (time.Time, bool) {
	if r.CancelAt != nil {
		return *r.CancelAt, true
	}
	if r.CancelAtPeriodEnd && r.CurrentPeriodEnd != nil {
		return *r.CurrentPeriodEnd, true
	}
	return time.Time{}, false
}
