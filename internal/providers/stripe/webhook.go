package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// DefaultTolerance: допустимое расхождение времени подписи вебхука.
const DefaultTolerance = 5 * time.Minute

// Event: конверт события вебхука; Object разбирается по типу события.
type Event struct {
	ID      string
	Type    string
	Created time.Time
	Object  json.RawMessage
}

// PayoutObject: data.object для событий payout.*.
type PayoutObject struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	FailureCode    string `json:"failure_code"`
	FailureMessage string `json:"failure_message"`
}

// ParseEvent проверяет заголовок Stripe-Signature и разбирает событие.
// Версия API события не сверяется: из события читаются только поля выплаты.
func ParseEvent(payload []byte, header, secret string) (*Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		Tolerance:                DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe: %w", err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type), Created: time.Unix(ev.Created, 0)}
	if ev.Data != nil {
		out.Object = ev.Data.Raw
	}
	return out, nil
}

// IsSignatureError сообщает, что событие отклонено из-за подписи, а не из-за тела.
func IsSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
