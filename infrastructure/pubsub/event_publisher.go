package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cloud.google.com/go/pubsub"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

// NewPubSubClient connects to Google Pub/Sub. An empty project id means the
// integration is disabled.
func NewPubSubClient(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID)
}

type IEventPublisher interface {
	repository.IUploadEventSink
	Stop()
}

// EventPublisher forwards upload events to a Pub/Sub topic.
type EventPublisher struct {
	PubSubClient *pubsub.Client
	topicName    string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewEventPublisher(pubSubClient *pubsub.Client, topicName string) IEventPublisher {
	return &EventPublisher{PubSubClient: pubSubClient, topicName: topicName}
}

func (p *EventPublisher) Publish(ctx context.Context, event model.UploadEvent) error {
	if p.PubSubClient == nil {
		return nil
	}
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return err
	}
	msg, err := Message(event)
	if err != nil {
		return err
	}
	serverID, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	logger.GetLogger().WithField("server_id", serverID).WithField("video_id", event.VideoID).Debug("Upload event published")
	return nil
}

func (p *EventPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}
	topic := p.PubSubClient.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", p.topicName, err)
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		if topic, err = p.PubSubClient.CreateTopic(ctx, p.topicName); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", p.topicName, err)
		}
	}
	p.topic = topic
	return topic, nil
}

// Stop flushes pending messages.
func (p *EventPublisher) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}

// Message encodes an event with routing attributes so subscribers can
// filter without decoding the body.
func Message(event model.UploadEvent) (*pubsub.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode upload event: %w", err)
	}
	attrs := map[string]string{
		"type":     event.Type,
		"video_id": event.VideoID,
		"user_id":  event.UserID,
	}
	if event.Platform != "" {
		attrs["platform"] = event.Platform
	}
	return &pubsub.Message{Data: data, Attributes: attrs}, nil
}
