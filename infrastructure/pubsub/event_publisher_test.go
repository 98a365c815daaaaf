package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gpubsub "cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"socialhub/domain/model"
	"socialhub/infrastructure/pubsub"
)

func TestNewEventPublisher_NilClient(t *testing.T) {
	p := pubsub.NewEventPublisher(nil, "video-uploads")
	assert.NotNil(t, p)
	assert.NoError(t, p.Publish(context.Background(), model.UploadEvent{Type: model.EventVideoProcessing}))
	p.Stop()
}

func TestMessage(t *testing.T) {
	msg, err := pubsub.Message(model.UploadEvent{
		Type:     model.EventPlatformFailed,
		VideoID:  "v1",
		UserID:   "u1",
		Platform: model.PlatformTikTok,
		Status:   model.VideoStatusProcessing,
		Error:    "credentials missing",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"type": model.EventPlatformFailed, "video_id": "v1", "user_id": "u1", "platform": "tiktok",
	}, msg.Attributes)

	var back model.UploadEvent
	require.NoError(t, json.Unmarshal(msg.Data, &back))
	assert.Equal(t, "credentials missing", back.Error)
}

func TestPublish_CreatesTopic(t *testing.T) {
	srv := pstest.NewServer()
	defer srv.Close()

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx := context.Background()
	client, err := gpubsub.NewClient(ctx, "socialhub-test", option.WithGRPCConn(conn))
	require.NoError(t, err)
	defer client.Close()

	p := pubsub.NewEventPublisher(client, "video-uploads")
	defer p.Stop()

	for _, typ := range []string{model.EventVideoProcessing, model.EventVideoCompleted} {
		require.NoError(t, p.Publish(ctx, model.UploadEvent{
			Type: typ, VideoID: "v1", UserID: "u1", OccurredAt: time.Now().UTC(),
		}))
	}

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	assert.ElementsMatch(t,
		[]string{model.EventVideoProcessing, model.EventVideoCompleted},
		[]string{msgs[0].Attributes["type"], msgs[1].Attributes["type"]})
}
