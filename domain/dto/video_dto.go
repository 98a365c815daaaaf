package dto

import (
	"time"

	"socialhub/domain/model"
)

// SubmitVideoRequest is the parsed multipart upload form.
type SubmitVideoRequest struct {
	UserID        string
	FileName      string
	ContentType   string
	Size          int64
	Title         string
	Description   string
	Tags          string
	PrivacyStatus string
	Platforms     string
}

type SubmitVideoResponse struct {
	VideoID   string            `json:"video_id"`
	Status    model.VideoStatus `json:"status"`
	Message   string            `json:"message"`
	Platforms []string          `json:"platforms"`
	CreatedAt time.Time         `json:"created_at"`
}

type VideoStatusResponse struct {
	VideoID       string                        `json:"video_id"`
	Status        model.VideoStatus             `json:"status"`
	Title         string                        `json:"title"`
	Description   string                        `json:"description"`
	Platforms     []string                      `json:"platforms"`
	Tags          []string                      `json:"tags"`
	PrivacyStatus string                        `json:"privacy_status"`
	UploadResults map[string]model.UploadResult `json:"upload_results"`
	Errors        map[string]string             `json:"errors"`
	CreatedAt     time.Time                     `json:"created_at"`
	UpdatedAt     *time.Time                    `json:"updated_at"`
}

// NewVideoStatusResponse projects a video. Errors is null when nothing failed.
func NewVideoStatusResponse(v *model.Video) VideoStatusResponse {
	results := v.UploadResults
	if results == nil {
		results = map[string]model.UploadResult{}
	}
	var errs map[string]string
	if len(v.Errors) > 0 {
		errs = v.Errors
	}
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return VideoStatusResponse{
		VideoID:       v.ID,
		Status:        v.Status,
		Title:         v.Title,
		Description:   v.Description,
		Platforms:     v.Platforms,
		Tags:          tags,
		PrivacyStatus: v.PrivacyStatus,
		UploadResults: results,
		Errors:        errs,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

type VideoListResponse struct {
	UserID string                `json:"user_id"`
	Total  int                   `json:"total"`
	Videos []VideoStatusResponse `json:"videos"`
}

// UpdateVideoRequest holds the optional editable fields. Tags is comma-separated.
type UpdateVideoRequest struct {
	Title         *string `json:"title" form:"title"`
	Description   *string `json:"description" form:"description"`
	Tags          *string `json:"tags" form:"tags"`
	PrivacyStatus *string `json:"privacy_status" form:"privacy_status"`
}

type UpdateVideoResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Video   VideoStatusResponse `json:"video"`
}

type DeleteVideoResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	VideoID string `json:"video_id"`
}
