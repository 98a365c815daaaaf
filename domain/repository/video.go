package repository

import (
	"context"
	"time"

	"socialhub/domain/model"
)

// IVideo persists video records. Missing ids yield model.ErrNotFound.
type IVideo interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id string) (*model.Video, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Video, error)
	// UpdateMetadata writes title, description, tags, privacy and updated_at.
	UpdateMetadata(ctx context.Context, video *model.Video) error
	// UpdateProgress writes status, results, errors and updated_at.
	UpdateProgress(ctx context.Context, video *model.Video) error
	// UpdateStatus writes only status and updated_at, for when the full record cannot be loaded.
	UpdateStatus(ctx context.Context, id string, status model.VideoStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}
