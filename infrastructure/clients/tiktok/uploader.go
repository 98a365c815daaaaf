package tiktok

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/clients/host"
	"socialhub/infrastructure/logger"
)

type UploaderConfig struct {
	APIBaseURL     string
	ControlTimeout time.Duration
	MediaTimeout   time.Duration
}

// Uploader sends a video to the creator's TikTok inbox in a single chunk.
type Uploader struct {
	api   *host.Host
	media *http.Client
}

func NewUploader(cfg UploaderConfig) *Uploader {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.ControlTimeout <= 0 {
		cfg.ControlTimeout = 30 * time.Second
	}
	if cfg.MediaTimeout <= 0 {
		cfg.MediaTimeout = 10 * time.Minute
	}
	return &Uploader{
		api:   host.NewHost(model.PlatformTikTok, cfg.APIBaseURL, cfg.ControlTimeout),
		media: &http.Client{Timeout: cfg.MediaTimeout},
	}
}

var _ repository.IPlatformUploader = (*Uploader)(nil)

func (u *Uploader) Platform() string { return model.PlatformTikTok }

// PrivacyLevel maps a platform-agnostic privacy status onto TikTok's levels.
func PrivacyLevel(privacy string) string {
	switch privacy {
	case "public":
		return "PUBLIC_TO_EVERYONE"
	case "unlisted":
		return "MUTUAL_FOLLOW_FRIENDS"
	default:
		return "SELF_ONLY"
	}
}

type postInfo struct {
	Title                 string `json:"title"`
	Description           string `json:"description"`
	PrivacyLevel          string `json:"privacy_level"`
	DisableDuet           bool   `json:"disable_duet"`
	DisableComment        bool   `json:"disable_comment"`
	DisableStitch         bool   `json:"disable_stitch"`
	VideoCoverTimestampMs int    `json:"video_cover_timestamp_ms"`
}

type sourceInfo struct {
	Source          string `json:"source"`
	VideoSize       int64  `json:"video_size"`
	ChunkSize       int64  `json:"chunk_size"`
	TotalChunkCount int    `json:"total_chunk_count"`
}

type initRequest struct {
	PostInfo   postInfo   `json:"post_info"`
	SourceInfo sourceInfo `json:"source_info"`
}

func (u *Uploader) Upload(ctx context.Context, req model.UploadRequest) (*model.UploadResult, error) {
	creds, ok := req.Credentials.(model.TikTokCredentials)
	if !ok || creds.AccessToken == "" {
		return nil, fmt.Errorf("tiktok: %w", model.ErrCredentialsMissing)
	}
	info, err := os.Stat(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("tiktok: stat video: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return nil, model.NewValidationError("file", "video file is empty")
	}

	caption := model.TruncateCaption(model.BuildCaption(req.Metadata.Title, req.Metadata.Description, req.Metadata.Tags))
	lg := logger.GetLogger().WithField("platform", model.PlatformTikTok).WithField("user_id", req.UserID)
	lg.WithField("size", size).Info("tiktok upload init")

	resp, err := u.api.PostJSON(ctx, "init", "/v2/post/publish/inbox/video/init/", creds.AccessToken, initRequest{
		PostInfo: postInfo{
			Title:                 caption,
			Description:           caption,
			PrivacyLevel:          PrivacyLevel(req.Metadata.PrivacyStatus),
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: sourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       size,
			TotalChunkCount: 1,
		},
	})
	if err != nil {
		return nil, err
	}
	if code := resp.Get("error.code").String(); code != "" && code != "ok" {
		return nil, model.NewRejectedError(model.PlatformTikTok, "init", resp.StatusCode, host.ErrorMessage(resp.Body))
	}
	uploadURL := resp.Get("data.upload_url").String()
	publishID := resp.Get("data.publish_id").String()
	if uploadURL == "" || publishID == "" {
		return nil, model.NewRejectedError(model.PlatformTikTok, "init", resp.StatusCode, "response without upload_url or publish_id")
	}

	if err := u.putFile(ctx, uploadURL, req.FilePath, size); err != nil {
		return nil, err
	}
	lg.WithField("publish_id", publishID).Info("tiktok upload done")

	return &model.UploadResult{
		ID:      publishID,
		Status:  "uploaded",
		Details: map[string]string{"message": "video is being processed by TikTok"},
	}, nil
}

func (u *Uploader) putFile(ctx context.Context, uploadURL, path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("tiktok: open video: %w", err)
	}
	defer f.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, f)
	if err != nil {
		return err
	}
	httpReq.ContentLength = size
	httpReq.Header.Set("Content-Type", "video/mp4")
	httpReq.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))
	_, err = u.api.DoWith(u.media, "upload", httpReq)
	return err
}
