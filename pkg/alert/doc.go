// Package alert delivers operator alerts to an external webhook endpoint.
//
// Alerts are JSON payloads signed with HMAC-SHA256 and delivered with
// retries and exponential backoff. The Notifier satisfies the
// billing.AlertNotifier interface consumed by the reminder scanner.
package alert
