package model

import "time"

const (
	EventVideoProcessing  = "video.processing"
	EventPlatformUploaded = "platform.uploaded"
	EventPlatformFailed   = "platform.failed"
	EventVideoCompleted   = "video.completed"
)

// UploadEvent is published while a video is fanned out.
type UploadEvent struct {
	Type       string        `json:"type" bson:"type"`
	VideoID    string        `json:"video_id" bson:"videoId"`
	UserID     string        `json:"user_id" bson:"userId"`
	Platform   string        `json:"platform,omitempty" bson:"platform,omitempty"`
	Status     VideoStatus   `json:"status" bson:"status"`
	Result     *UploadResult `json:"result,omitempty" bson:"result,omitempty"`
	Error      string        `json:"error,omitempty" bson:"error,omitempty"`
	OccurredAt time.Time     `json:"occurred_at" bson:"occurredAt"`
}
