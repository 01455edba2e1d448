package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"pin-scheduler/domain/apperror"
	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
	"pin-scheduler/infrastructure/clients/pinterest"
	"pin-scheduler/infrastructure/logger"
)

type PublishResult struct {
	PinterestID string
	Raw         json.RawMessage
}

// IPublishWorker posts one pin to Pinterest.
type IPublishWorker interface {
	Publish(ctx context.Context, pin model.ScheduledPin, accessToken string) (*PublishResult, error)
}

type publishWorker struct {
	gateway     IGateway
	placeholder string
}

func NewPublishWorker(gateway IGateway, placeholderImageURL string) IPublishWorker {
	return &publishWorker{gateway: gateway, placeholder: placeholderImageURL}
}

type createdPin struct {
	ID string `json:"id"`
}

func (w *publishWorker) Publish(ctx context.Context, pin model.ScheduledPin, accessToken string) (*PublishResult, error) {
	payload := model.NewPinCreate(pin, NormalizeImageURL(pin.ImageURL, w.placeholder))
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := w.gateway.Forward(ctx, dto.ProxyRequest{
		Method:        http.MethodPost,
		Path:          "/pins",
		Body:          body,
		Authorization: bearer(accessToken),
	})
	if err != nil {
		return nil, err
	}
	if resp.Status < 200 || resp.Status > 299 {
		msg := pinterest.ErrorMessage(resp.Body, "Failed to create pin")
		logger.GetLogger().WithField("pin_id", pin.ID).WithField("status", resp.Status).WithField("error", msg).Error("Error while create pin")
		return nil, apperror.Publish(resp.Status, msg)
	}

	var created createdPin
	if err := json.Unmarshal(resp.Body, &created); err != nil || created.ID == "" {
		return nil, apperror.Publish(resp.Status, "Pinterest response missing pin id")
	}
	return &PublishResult{PinterestID: created.ID, Raw: resp.Body}, nil
}

// bearer accepts either a raw token or an Authorization header value.
func bearer(token string) string {
	if token == "" || strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}
