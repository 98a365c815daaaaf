package repository

import (
	"context"

	"socialhub/domain/model"
)

type IUploadEventSink interface {
	Publish(ctx context.Context, event model.UploadEvent) error
}

// IUploadHistory reads back the recorded events of one video.
type IUploadHistory interface {
	History(ctx context.Context, videoID string) ([]model.UploadEvent, error)
}
