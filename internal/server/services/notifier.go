package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/logging"
)

type NotificationKind string

const (
	NotifyCapsuleCreated  NotificationKind = "capsule_created"
	NotifyCapsuleUnlocked NotificationKind = "capsule_unlocked"
	NotifyInvite          NotificationKind = "invite"
)

// Notification is one message to one recipient. Capsule notifications never
// carry the payload; only the headline and the unlock instant.
type Notification struct {
	Kind           NotificationKind
	RecipientEmail string
	SenderEmail    string
	SenderName     string
	CapsuleID      string
	Headline       string
	UnlockAt       time.Time
	InviteToken    string
	Message        string
}

// Notifier delivers notifications. A returned error marks the delivery failed.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log. It stands in for a
// mail or push gateway.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("module", "notifier")}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Notification) error {
	args := []any{
		"kind", string(msg.Kind),
		"to", msg.RecipientEmail,
		"from", msg.SenderEmail,
	}
	switch msg.Kind {
	case NotifyInvite:
		args = append(args, "token", msg.InviteToken, "message", msg.Message)
	default:
		args = append(args, "capsule_id", msg.CapsuleID, "headline", msg.Headline,
			"unlock_at", msg.UnlockAt.UTC().Format(time.RFC3339))
	}
	n.logger.Info(ctx, "notification", args...)
	return nil
}
