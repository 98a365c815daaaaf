package servicebus_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialhub/domain/model"
	"socialhub/infrastructure/servicebus"
)

func TestNewEventPublisher_NilClient(t *testing.T) {
	p := servicebus.NewEventPublisher(nil, "video-uploads")
	assert.NotNil(t, p)
	assert.NoError(t, p.Publish(context.Background(), model.UploadEvent{Type: model.EventVideoCompleted}))
	assert.NoError(t, p.Close(context.Background()))
}

func TestNewServiceBusClient_NoNamespace(t *testing.T) {
	_, err := servicebus.NewServiceBusClient("")
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	msg, err := servicebus.Message(model.UploadEvent{
		Type:     model.EventPlatformUploaded,
		VideoID:  "v1",
		UserID:   "u1",
		Platform: model.PlatformYouTube,
		Status:   model.VideoStatusProcessing,
		Result:   &model.UploadResult{ID: "yt1", Status: "uploaded"},
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Subject)
	assert.Equal(t, model.EventPlatformUploaded, *msg.Subject)
	assert.Equal(t, "application/json", *msg.ContentType)
	assert.Equal(t, "v1:platform.uploaded:youtube", *msg.MessageID)
	assert.Equal(t, "processing", msg.ApplicationProperties["status"])

	var back model.UploadEvent
	require.NoError(t, json.Unmarshal(msg.Body, &back))
	assert.Equal(t, "yt1", back.Result.ID)
}
