package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/soundvault/earnings-backend/internal/domain/valueobject"
	"github.com/soundvault/earnings-backend/internal/http/handlers/common"
	"github.com/soundvault/earnings-backend/internal/pkg/apperror"
	"github.com/soundvault/earnings-backend/internal/providers/stripe"
)

const (
	maxWebhookBody = 64 << 10

	// unlinkedPayoutRetryWindow: сколько времени после создания события выплата
	// без заявки считается ещё не записанной, и Stripe просят повторить доставку.
	unlinkedPayoutRetryWindow = 15 * time.Minute
)

type PayoutEventApplier interface {
	ApplyPayoutEvent(ctx context.Context, payoutID string, status valueobject.WithdrawalStatus, reason *string) error
}

// StripeWebhookHandler принимает события payout.* от Stripe и двигает статус заявок.
type StripeWebhookHandler struct {
	payouts PayoutEventApplier
	secret  string
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewStripeWebhookHandler(payouts PayoutEventApplier, secret string, log logrus.FieldLogger) *StripeWebhookHandler {
	return &StripeWebhookHandler{payouts: payouts, secret: secret, log: log, now: time.Now}
}

// Handle POST /api/webhooks/stripe
func (h *StripeWebhookHandler) Handle(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stripe webhooks are not configured"})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		common.Fail(c, apperror.Validation("invalid request body"))
		return
	}

	event, err := stripe.ParseEvent(payload, c.GetHeader("Stripe-Signature"), h.secret)
	if err != nil {
		h.log.WithError(err).Warn("stripe webhook rejected")
		if stripe.IsSignatureError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		common.Fail(c, apperror.Validation("invalid event payload"))
		return
	}

	var status valueobject.WithdrawalStatus
	switch event.Type {
	case "payout.paid":
		status = valueobject.WithdrawalStatusCompleted
	case "payout.failed", "payout.canceled":
		status = valueobject.WithdrawalStatusRejected
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var obj stripe.PayoutObject
	if err := json.Unmarshal(event.Object, &obj); err != nil || obj.ID == "" {
		common.Fail(c, apperror.Validation("invalid payout object"))
		return
	}

	var reason *string
	if status == valueobject.WithdrawalStatusRejected {
		msg := obj.FailureMessage
		if msg == "" {
			msg = obj.FailureCode
		}
		if msg == "" {
			msg = "payout " + obj.Status
		}
		reason = &msg
	}

	log := h.log.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"payout_id":  obj.ID,
	})
	log.Info("stripe payout event received")

	err = h.payouts.ApplyPayoutEvent(c.Request.Context(), obj.ID, status, reason)
	switch {
	case errors.Is(err, apperror.ErrPayoutNotLinked):
		if h.now().Sub(event.Created) < unlinkedPayoutRetryWindow {
			log.Warn("payout is not linked to a withdrawal yet, asking stripe to retry")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payout is not linked yet"})
			return
		}
		log.Error("payout event for unknown withdrawal dropped")
	case err != nil:
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
