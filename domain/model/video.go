package model

import "time"

type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusUploaded   VideoStatus = "uploaded"
	VideoStatusPartial    VideoStatus = "partial"
	VideoStatusFailed     VideoStatus = "failed"
)

// IsTerminal reports whether no further automatic transition can happen.
func (s VideoStatus) IsTerminal() bool {
	return s == VideoStatusUploaded || s == VideoStatusPartial || s == VideoStatusFailed
}

const (
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformInstagram = "instagram"
)

// SupportedPlatforms lists every platform an upload can be fanned out to.
var SupportedPlatforms = []string{PlatformYouTube, PlatformTikTok, PlatformInstagram}

func IsSupportedPlatform(p string) bool {
	for _, s := range SupportedPlatforms {
		if s == p {
			return true
		}
	}
	return false
}

// Video is one user-submitted upload intent and its per-platform outcome.
type Video struct {
	ID            string                  `json:"video_id"`
	UserID        string                  `json:"user_id"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	Tags          []string                `json:"tags"`
	Platforms     []string                `json:"platforms"`
	PrivacyStatus string                  `json:"privacy_status"`
	Status        VideoStatus             `json:"status"`
	UploadResults map[string]UploadResult `json:"upload_results"`
	Errors        map[string]string       `json:"errors"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     *time.Time              `json:"updated_at"`
}

// RecordResult stores a successful platform outcome. A platform is terminal in exactly
// one of UploadResults and Errors.
func (v *Video) RecordResult(platform string, res UploadResult) {
	if v.UploadResults == nil {
		v.UploadResults = map[string]UploadResult{}
	}
	delete(v.Errors, platform)
	v.UploadResults[platform] = res
}

func (v *Video) RecordError(platform, message string) {
	if v.Errors == nil {
		v.Errors = map[string]string{}
	}
	delete(v.UploadResults, platform)
	v.Errors[platform] = message
}

// FinalStatus derives the aggregate status once every platform has been attempted.
func (v *Video) FinalStatus() VideoStatus {
	switch {
	case len(v.Errors) == 0:
		return VideoStatusUploaded
	case len(v.UploadResults) == 0:
		return VideoStatusFailed
	default:
		return VideoStatusPartial
	}
}

func (v *Video) Touch(now time.Time) {
	v.UpdatedAt = &now
}

// UploadResult is the per-platform payload returned by an adapter.
type UploadResult struct {
	ID      string            `json:"id"`
	Status  string            `json:"status"`
	URL     string            `json:"url,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// UploadMetadata is what every adapter receives besides the media file.
type UploadMetadata struct {
	Title         string
	Description   string
	Tags          []string
	PrivacyStatus string
}

// UploadRequest is the uniform adapter input.
type UploadRequest struct {
	UserID      string
	Credentials PlatformCredentials
	FilePath    string
	Metadata    UploadMetadata
}

// VideoUpdate carries the optional mutable fields of a video.
type VideoUpdate struct {
	Title         *string
	Description   *string
	Tags          *[]string
	PrivacyStatus *string
}

func (u VideoUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Tags == nil && u.PrivacyStatus == nil
}

// Apply copies the fields set in u onto the video.
func (v *Video) Apply(u VideoUpdate) {
	if u.Title != nil {
		v.Title = *u.Title
	}
	if u.Description != nil {
		v.Description = *u.Description
	}
	if u.Tags != nil {
		v.Tags = *u.Tags
	}
	if u.PrivacyStatus != nil {
		v.PrivacyStatus = *u.PrivacyStatus
	}
}
