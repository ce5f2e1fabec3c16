// Package accessgate decides whether a school's request is allowed based on
// its billing lock flag.
//
// The gate is a single composable policy applied uniformly in front of
// protected handlers. Superusers always pass. A locked school is denied
// everywhere except the billing surface and logout, so it can always
// re-subscribe. The billing record is read fresh on every request; a
// reactivation webhook takes effect on the very next request.
package accessgate
