// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package staff

import (
	"context"
	"log/slog"
)

// Event names an account notification.
type Event string

const (
	EventCreated     Event = "staff_account_created"
	EventDeactivated Event = "staff_account_deactivated"
	EventReactivated Event = "staff_account_reactivated"
)

// Notifier tells a staff member about changes to their account.
//
// Notify has no error result: delivery problems are the notifier's own concern
// and must never fail the request that triggered them.
type Notifier interface {
	Notify(ctx context.Context, event Event, staff Staff)
}

// LogNotifier records notifications in the structured log. The office has no
// outbound mail relay, so the log is the delivery channel.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a [LogNotifier].
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements [Notifier].
func (notifier *LogNotifier) Notify(ctx context.Context, event Event, staff Staff) {
	attrs := []any{
		slog.String("event", string(event)),
		slog.Int64("staff_id", staff.ID),
		slog.String("email", staff.Email),
		slog.String("full_name", staff.FullName),
	}
	if staff.DeactivateReason != nil {
		attrs = append(attrs, slog.String("reason", *staff.DeactivateReason))
	}
	notifier.logger.InfoContext(ctx, "staff_notification_dispatched", attrs...)
}
