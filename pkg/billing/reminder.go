package billing

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultReminderWindow is how far ahead the scanner warns about scheduled
// cancellations.
const DefaultReminderWindow = 3 * 24 * time.Hour

// CancellationState classifies a record's cancellation schedule relative
// to a point in time.
type CancellationState int

const (
	// CancellationNone: no cancellation scheduled, or it is beyond the window.
	CancellationNone CancellationState = iota
	// CancellationUpcoming: the subscription ends within the window.
	CancellationUpcoming
	// CancellationOverdue: the subscription already ended but the school is
	// still unlocked, meaning the deletion webhook was missed or delayed.
	CancellationOverdue
)

// ClassifyCancellation is the scanner's pure classification: given "now"
// and a look-ahead window it reports the record's state and the effective
// end time. Records with no schedule classify as none.
func ClassifyCancellation(rec Record, now time.Time, window time.Duration) (CancellationState, time.Time) {
	end, ok := rec.EffectiveCancelTime()
	if !ok {
		return CancellationNone, time.Time{}
	}
	if !end.After(now) {
		return CancellationOverdue, end
	}
	if !end.After(now.Add(window)) {
		return CancellationUpcoming, end
	}
	return CancellationNone, end
}

// ReminderSummary is the result of one scan pass.
type ReminderSummary struct {
	Scanned  int
	Upcoming int
	Overdue  int
}

func (s ReminderSummary) String() string {
	return fmt.Sprintf("checked %d active schools: %d upcoming, %d overdue", s.Scanned, s.Upcoming, s.Overdue)
}

// AlertNotifier delivers operator alerts out of band (e.g. an ops webhook).
// The scanner treats delivery failures as log-worthy, never fatal.
type AlertNotifier interface {
	Notify(ctx context.Context, severity, message string) error
}

// ReminderScanner is the periodic cancellation reminder job. It reads all
// unlocked records, classifies their cancellation schedule, and emits
// WARNING alerts for upcoming cancellations and ERROR alerts for overdue
// ones. It is strictly read-only: an overdue school stays unlocked until
// the deletion webhook arrives or an operator intervenes, so it is safe to
// run concurrently with webhook processing.
type ReminderScanner struct {
	store    RecordStore
	log      *slog.Logger
	notifier AlertNotifier // optional
	window   time.Duration
	now      func() time.Time
}

// ScannerOption configures the scanner.
type ScannerOption func(*ReminderScanner)

// WithScannerWindow overrides the default 3-day look-ahead window.
func WithScannerWindow(window time.Duration) ScannerOption {
	return func(s *ReminderScanner) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithScannerNotifier attaches an out-of-band alert notifier.
func WithScannerNotifier(n AlertNotifier) ScannerOption {
	return func(s *ReminderScanner) { s.notifier = n }
}

// WithScannerClock overrides the clock, for deterministic tests.
func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *ReminderScanner) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReminderScanner creates the scanner. Panics on a nil store.
func NewReminderScanner(store RecordStore, log *slog.Logger, opts ...ScannerOption) *ReminderScanner {
	if store == nil {
		panic("billing: RecordStore is required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &ReminderScanner{
		store:  store,
		log:    log,
		window: DefaultReminderWindow,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs a single scan pass and returns the summary.
func (s *ReminderScanner) Run(ctx context.Context) (ReminderSummary, error) {
	records, err := s.store.ListActive(ctx)
	if err != nil {
		return ReminderSummary{}, err
	}

	now := s.now()
	summary := ReminderSummary{Scanned: len(records)}

	for _, rec := range records {
		state, end := ClassifyCancellation(rec, now, s.window)
		switch state {
		case CancellationUpcoming:
			summary.Upcoming++
			s.log.WarnContext(ctx, "subscription will cancel soon",
				slog.String("school", rec.Slug),
				slog.Time("ends_at", end))
			s.notify(ctx, "warning", fmt.Sprintf(
				"school %q subscription will cancel on %s", rec.Slug, end.Format(time.RFC3339)))
		case CancellationOverdue:
			summary.Overdue++
			s.log.ErrorContext(ctx, "subscription ended but school is still unlocked",
				slog.String("school", rec.Slug),
				slog.Time("ended_at", end))
			s.notify(ctx, "error", fmt.Sprintf(
				"school %q subscription ended on %s but is still active (manual deactivation needed)",
				rec.Slug, end.Format(time.RFC3339)))
		}
	}

	return summary, nil
}

func (s *ReminderScanner) notify(ctx context.Context, severity, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, severity, message); err != nil {
		s.log.ErrorContext(ctx, "failed to deliver operator alert", slog.Any("error", err))
	}
}
