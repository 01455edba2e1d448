package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"cloud.google.com/go/pubsub"
	"pin-scheduler/domain/model"
	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/logger"
)

func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, errors.New("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}

// PinEventPublisher publishes pin status changes to a Pub/Sub topic.
type PinEventPublisher struct {
	client    *pubsub.Client
	topicName string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewPinEventPublisher(client *pubsub.Client, topicName string) repository.IEventPublisher {
	return &PinEventPublisher{client: client, topicName: topicName}
}

// ensureTopic creates the topic on first use if it doesn't exist.
func (p *PinEventPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.client.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		topic, err = p.client.CreateTopic(ctx, p.topicName)
		if err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

func (p *PinEventPublisher) PublishPinEvent(ctx context.Context, evt model.PinEvent) error {
	if p.client == nil {
		return errors.New("pubsub client not initialized")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"type": evt.Type, "pin_id": evt.PinID, "status": string(evt.Status)},
	}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server_id", serverID).WithField("pin_id", evt.PinID).Debug("Pin event published")
	return nil
}
