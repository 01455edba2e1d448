package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/logger"
)

// NewServiceBus accepts either a fully qualified namespace (uses the default Azure
// credential chain) or a connection string starting with Endpoint=.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, errors.New("service bus namespace not configured")
	}
	if strings.HasPrefix(namespace, "Endpoint=") {
		return azservicebus.NewClientFromConnectionString(namespace, nil)
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type PinEventPublisher struct {
	client *azservicebus.Client
	queue  string
}

func NewPinEventPublisher(client *azservicebus.Client, queue string) repository.IEventPublisher {
	return &PinEventPublisher{client: client, queue: queue}
}

func buildMessage(evt model.PinEvent) (*azservicebus.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	contentType := "application/json"
	subject := evt.Type
	messageID := evt.PinID + ":" + string(evt.Status)
	return &azservicebus.Message{
		Body:                  body,
		ContentType:           &contentType,
		Subject:               &subject,
		MessageID:             &messageID,
		ApplicationProperties: map[string]any{"pin_id": evt.PinID, "status": string(evt.Status)},
	}, nil
}

func (p *PinEventPublisher) PublishPinEvent(ctx context.Context, evt model.PinEvent) error {
	if p.client == nil {
		return errors.New("service bus client not initialized")
	}
	msg, err := buildMessage(evt)
	if err != nil {
		return err
	}
	sender, err := p.client.NewSender(p.queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, context.Background())

	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}
