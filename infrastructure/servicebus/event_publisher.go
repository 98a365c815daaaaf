package servicebus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

// NewServiceBusClient authenticates against a namespace such as
// "example.servicebus.windows.net" with the default Azure credential chain.
func NewServiceBusClient(namespace string) (*azservicebus.Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("service bus namespace not configured")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type IEventPublisher interface {
	repository.IUploadEventSink
	Close(ctx context.Context) error
}

// EventPublisher sends upload events to a Service Bus queue.
type EventPublisher struct {
	AzservicebusClient *azservicebus.Client
	queue              string

	mu     sync.Mutex
	sender *azservicebus.Sender
}

func NewEventPublisher(azServiceBusClient *azservicebus.Client, queue string) IEventPublisher {
	return &EventPublisher{AzservicebusClient: azServiceBusClient, queue: queue}
}

func (p *EventPublisher) Publish(ctx context.Context, event model.UploadEvent) error {
	if p.AzservicebusClient == nil {
		return nil
	}
	sender, err := p.getSender()
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	msg, err := Message(event)
	if err != nil {
		return err
	}
	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}

func (p *EventPublisher) getSender() (*azservicebus.Sender, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender != nil {
		return p.sender, nil
	}
	sender, err := p.AzservicebusClient.NewSender(p.queue, nil)
	if err != nil {
		return nil, err
	}
	p.sender = sender
	return sender, nil
}

func (p *EventPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sender == nil {
		return nil
	}
	err := p.sender.Close(ctx)
	p.sender = nil
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while closing sender.")
	}
	return err
}

// Message builds the queue message for an event. The message id is derived
// from the event so the queue can drop duplicate sends.
func Message(event model.UploadEvent) (*azservicebus.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode upload event: %w", err)
	}
	contentType := "application/json"
	subject := event.Type
	messageID := fmt.Sprintf("%s:%s:%s", event.VideoID, event.Type, event.Platform)
	return &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		MessageID:   &messageID,
		ApplicationProperties: map[string]any{
			"video_id": event.VideoID,
			"user_id":  event.UserID,
			"platform": event.Platform,
			"status":   string(event.Status),
		},
	}, nil
}
