package smtp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type mockMailClient struct {
	mock.Mock
}

func (m *mockMailClient) DialAndSend(msgs ...*mail.Msg) error {
	args := m.Called(msgs)
	return args.Error(0)
}

type payoutData struct {
	WithdrawalID string
	UserID       string
	Amount       string
	Method       string
	AccountHint  string
	Reason       string
}

func TestMailer_SendRendersTemplate(t *testing.T) {
	client := new(mockMailClient)
	mailer := NewMailerWithClient(client, "no-reply@example.org")

	var sent *mail.Msg
	client.On("DialAndSend", mock.Anything).Run(func(args mock.Arguments) {
		sent = args.Get(0).([]*mail.Msg)[0]
	}).Return(nil)

	err := mailer.Send("ops@example.org", payoutData{
		WithdrawalID: "wd-1", Amount: "USD 120.50", Method: "bank-transfer", Reason: "stripe unavailable",
	}, "degraded_payout.tmpl")
	require.NoError(t, err)
	require.NotNil(t, sent)

	assert.Equal(t, []string{"Manual payout needed: withdrawal wd-1"}, sent.GetGenHeader(mail.HeaderSubject))

	var buf bytes.Buffer
	_, err = sent.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "stripe unavailable")
	client.AssertNumberOfCalls(t, "DialAndSend", 1)
}

func TestMailer_RetriesThenFails(t *testing.T) {
	client := new(mockMailClient)
	mailer := NewMailerWithClient(client, "no-reply@example.org")
	mailer.retryWait = 0

	client.On("DialAndSend", mock.Anything).Return(errors.New("connection refused"))

	err := mailer.Send("ops@example.org", payoutData{WithdrawalID: "wd-1"}, "degraded_payout.tmpl")
	assert.Error(t, err)
	client.AssertNumberOfCalls(t, "DialAndSend", sendAttempts)
}

func TestMailer_UnknownTemplate(t *testing.T) {
	mailer := NewMailerWithClient(new(mockMailClient), "no-reply@example.org")
	assert.Error(t, mailer.Send("ops@example.org", nil, "missing.tmpl"))
}

func TestMailer_SendKeepsCallerPatterns(t *testing.T) {
	client := new(mockMailClient)
	mailer := NewMailerWithClient(client, "no-reply@example.org")
	client.On("DialAndSend", mock.Anything).Return(nil)

	names := []string{"degraded_payout.tmpl"}
	require.NoError(t, mailer.Send("ops@example.org", payoutData{WithdrawalID: "wd-1"}, names...))
	require.NoError(t, mailer.Send("ops@example.org", payoutData{WithdrawalID: "wd-2"}, names...))

	assert.Equal(t, []string{"degraded_payout.tmpl"}, names)
	client.AssertNumberOfCalls(t, "DialAndSend", 2)
}
