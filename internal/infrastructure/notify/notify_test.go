package notify

import (
	"context"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/notification"
	"github.com/Zhima-Mochi/minishop-saga/internal/infrastructure/observability/zaplogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogSenderWritesStructuredLine(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zaplogger.Wrap(zap.New(core)))

	require.NoError(t, s.Send(context.Background(), domain.Message{
		CustomerID: "c-1",
		Type:       domain.TypeCouponIssued,
		Channel:    domain.ChannelSMS,
		Recipient:  "010-1111-2222",
	}))

	entries := logs.FilterMessage("notification_sent").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "COUPON_ISSUED", fields["type"])
	assert.Equal(t, "notification_sender", fields["component"])
	assert.Equal(t, "010-1111-2222", fields["recipient"])
}

func TestDirectoryResolver(t *testing.T) {
	r := DirectoryResolver{MailDomain: "example.com", Phones: map[string]string{"c-1": "010-1111-2222"}}
	ctx := context.Background()

	v, err := r.Resolve(ctx, "c-1", domain.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, "c-1@example.com", v)

	v, err = r.Resolve(ctx, "c-1", domain.ChannelSMS)
	require.NoError(t, err)
	assert.Equal(t, "010-1111-2222", v)

	_, err = r.Resolve(ctx, "c-2", domain.ChannelSMS)
	assert.ErrorIs(t, err, domain.ErrNoRecipient)
	_, err = r.Resolve(ctx, "c-1", domain.ChannelPush)
	assert.ErrorIs(t, err, domain.ErrNoRecipient)
	_, err = r.Resolve(ctx, "", domain.ChannelEmail)
	assert.Error(t, err)
}
