package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// SchoolID records the school identifier under the key "school_id".
func SchoolID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("school_id", id)
}

// SchoolSlug records the school slug under the key "school_slug".
func SchoolSlug(slug string) slog.Attr {
	return slog.String("school_slug", slug)
}

// EventType records the processor event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// SubscriptionID records the processor subscription id.
func SubscriptionID(id string) slog.Attr {
	return slog.String("subscription_id", id)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}
