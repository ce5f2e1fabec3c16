// Package billing keeps each school's locally-stored subscription state in
// sync with the payment processor and derives the access-control lock from
// it.
//
// The engine has four moving parts:
//
//   - Record: the per-school billing state (tier, processor linkage, lock
//     flag, cancellation schedule), persisted through RecordStore.
//   - Service: starts hosted checkout/portal sessions and processes the
//     processor's webhook stream. Events are verified at a single trust
//     boundary (Provider.VerifyWebhook), then routed to idempotent handlers
//     built from the pure Apply* functions; each handler writes to exactly
//     one record.
//   - Catalog: the server-side price catalog and the price→plan resolver.
//     An unknown price never changes a plan and never resets it to trial.
//   - ReminderScanner: a read-only periodic job that flags upcoming and
//     overdue cancellations for operators.
//
// Delivery semantics: the processor sends events at-least-once and possibly
// out of order. Handlers are plain field assignments, so replays converge,
// and concurrent updates resolve last-write-wins by processing order rather
// than by event time.
//
// Locking policy: a deletion event flips IsActive to false but keeps the
// plan tier as a historical fact. A completed checkout is the only path
// that flips it back to true.
//
// Typical wiring:
//
//	catalog, err := billing.NewCatalogFromConfig(catalogCfg)
//	provider, err := billing.NewStripeProvider(stripeCfg)
//	svc := billing.NewService(billing.NewPgStore(pool), provider, catalog,
//		billing.WithLogger(log))
//
//	// webhook endpoint
//	err = svc.HandleWebhook(ctx, payload, r.Header.Get("Stripe-Signature"))
package billing
