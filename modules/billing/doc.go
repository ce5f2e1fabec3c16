// Package billing exposes the HTTP surface of the subscription engine: the
// tenant-facing overview page with plan, feature flags, and pricing, the
// checkout and portal redirect endpoints, and the processor webhook
// receiver.
//
// The page and redirect routes require a resolved school and are meant to
// be mounted behind the tenant middleware. The billing path itself stays on
// the access gate's allow list so locked schools can still reach it. The
// webhook handler is mounted separately, outside both.
package billing
