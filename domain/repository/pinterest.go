package repository

import (
	"context"

	"pin-scheduler/domain/dto"
	"pin-scheduler/domain/model"
)

// IPinterestAPI is the raw REST surface of the provider.
type IPinterestAPI interface {
	Do(ctx context.Context, req dto.ProxyRequest) (*dto.ProxyResponse, error)
	GetUserAccount(ctx context.Context, accessToken string) (*model.PinterestUser, error)
}

type IEventPublisher interface {
	PublishPinEvent(ctx context.Context, evt model.PinEvent) error
}
