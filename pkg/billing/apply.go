package billing

import "time"

// The apply functions below are the whole mutation logic of the engine:
// pure functions from (record, resolved change) to record, committed by the
// Service through a single scoped store update. Keeping them pure makes
// idempotence and isolation unit-testable without a database, and keeps
// every handler a plain field assignment (re-delivery converges).

// CheckoutChange is a checkout.session.completed event after the Service
// has resolved its plan (from line items or the subscription-retrieval
// fallback). PlanResolved=false means "leave the plan alone".
type CheckoutChange struct {
	CustomerID     string
	SubscriptionID string
	Status         string // resolved subscription status; empty defaults to "active"
	Plan           Plan
	PlanResolved   bool
}

// SubscriptionChange is a customer.subscription.updated event after plan
// resolution. Schedule fields are the processor's values verbatim; absent
// values arrive as nil/false and overwrite whatever was stored.
type SubscriptionChange struct {
	Status            string
	Plan              Plan
	PlanResolved      bool
	CancelAt          *time.Time
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time
}

// ApplyCheckoutCompleted links the processor identifiers, resolves the
// tier, and unlocks the school. This is the reactivation path: a locked
// school that completes a new checkout becomes active again. A fresh
// subscription has no pending cancellation, so the schedule is cleared.
func ApplyCheckoutCompleted(rec Record, ch CheckoutChange) Record {
	if ch.CustomerID != "" {
		rec.CustomerID = ch.CustomerID
	}
	if ch.SubscriptionID != "" {
		rec.SubscriptionID = ch.SubscriptionID
	}
	if ch.PlanResolved {
		rec.Plan = ch.Plan
	}
	rec.SubscriptionStatus = ch.Status
	if rec.SubscriptionStatus == "" {
		rec.SubscriptionStatus = "active"
	}
	rec.IsActive = true
	rec.CancelAt = nil
	rec.CancelAtPeriodEnd = false
	rec.CurrentPeriodEnd = nil
	return rec
}

// ApplySubscriptionUpdated mirrors the processor's status and cancellation
// schedule. It never touches IsActive: a scheduled future cancellation is
// recorded but locking happens only on deletion (or manual intervention).
func ApplySubscriptionUpdated(rec Record, ch SubscriptionChange) Record {
	rec.SubscriptionStatus = ch.Status
	if ch.PlanResolved {
		rec.Plan = ch.Plan
	}
	rec.CancelAt = ch.CancelAt
	rec.CancelAtPeriodEnd = ch.CancelAtPeriodEnd
	rec.CurrentPeriodEnd = ch.CurrentPeriodEnd
	return rec
}

// ApplySubscriptionDeleted locks the school. Plan is retained as a
// historical fact; only the lock flag, the status mirror, and the schedule
// change.
func ApplySubscriptionDeleted(rec Record) Record {
	rec.SubscriptionStatus = "canceled"
	rec.IsActive = false
	rec.CancelAt = nil
	rec.CancelAtPeriodEnd = false
	rec.CurrentPeriodEnd = nil
	return rec
}
