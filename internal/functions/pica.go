package functions

import (
	"context"
	"encoding/json"

	"github.com/soundvault/earnings-backend/internal/providers"
	"github.com/soundvault/earnings-backend/internal/providers/pica"
)

type PicaAPI interface {
	Forward(ctx context.Context, fr pica.ForwardRequest) (*providers.Response, error)
}

// PicaPassthrough: функция "pica-passthrough". Операцию выбирает action_id,
// поэтому поле action не используется.
type PicaPassthrough struct {
	client PicaAPI
}

func NewPicaPassthrough(client PicaAPI) *PicaPassthrough {
	return &PicaPassthrough{client: client}
}

func (f *PicaPassthrough) Name() string { return "pica-passthrough" }

func (f *PicaPassthrough) AdminOnly() bool { return true }

type picaPayload struct {
	ActionID string          `json:"action_id"`
	Method   string          `json:"method"`
	Path     string          `json:"path"`
	Data     json.RawMessage `json:"data"`
}

func (f *PicaPassthrough) Invoke(ctx context.Context, call Call) (*providers.Response, error) {
	var p picaPayload
	if err := decode(call.Payload, &p); err != nil {
		return nil, err
	}
	if err := required("action_id", p.ActionID, "path", p.Path); err != nil {
		return nil, err
	}

	return f.client.Forward(ctx, pica.ForwardRequest{
		ActionID: p.ActionID,
		Method:   p.Method,
		Path:     p.Path,
		Data:     p.Data,
	})
}
