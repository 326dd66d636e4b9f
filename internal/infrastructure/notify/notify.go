// Package notify holds the in-process notification adapters used when no
// message broker is configured.
package notify

import (
	"context"
	"fmt"
	"strings"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability"
	"github.com/Zhima-Mochi/minishop-saga/internal/observability/logctx"
)

// LogSender writes every notification as a structured log line.
type LogSender struct {
	log observability.Logger
}

func NewLogSender(log observability.Logger) *LogSender {
	if log == nil {
		log = observability.NopLogger()
	}
	return &LogSender{log: log.With(observability.F("component", "notification_sender"))}
}

func (s *LogSender) Send(ctx context.Context, m domain.Message) error {
	logctx.FromOr(ctx, s.log).Info("notification_sent",
		observability.F("customer_id", m.CustomerID),
		observability.F("type", string(m.Type)),
		observability.F("channel", string(m.Channel)),
		observability.F("recipient", m.Recipient),
		observability.F("title", m.Title),
		observability.F("reference_id", m.ReferenceID),
		observability.F("reference_type", string(m.ReferenceType)),
	)
	return nil
}

// DirectoryResolver derives an email mailbox from the customer id and looks up
// phone numbers and device tokens in static maps.
type DirectoryResolver struct {
	MailDomain string
	Phones     map[string]string
	Devices    map[string]string
}

func (r DirectoryResolver) Resolve(_ context.Context, customerID string, ch domain.Channel) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", fmt.Errorf("notify: customer id is required")
	}
	var (
		v  string
		ok bool
	)
	switch ch {
	case domain.ChannelEmail:
		if r.MailDomain == "" {
			return "", domain.ErrNoRecipient
		}
		return customerID + "@" + r.MailDomain, nil
	case domain.ChannelSMS:
		v, ok = r.Phones[customerID]
	case domain.ChannelPush:
		v, ok = r.Devices[customerID]
	}
	if !ok || v == "" {
		return "", domain.ErrNoRecipient
	}
	return v, nil
}
