package youtube

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

// CategoryPeopleAndBlogs is the category every upload is filed under.
const CategoryPeopleAndBlogs = "22"

// PersistFunc stores credentials that were refreshed during an upload.
type PersistFunc func(ctx context.Context, userID string, creds model.PlatformCredentials) error

type UploaderConfig struct {
	// Endpoint overrides the YouTube Data API base URL.
	Endpoint     string
	MediaTimeout time.Duration
}

// Uploader inserts videos through the YouTube Data API.
type Uploader struct {
	cfg     UploaderConfig
	persist PersistFunc
}

func NewUploader(cfg UploaderConfig, persist PersistFunc) *Uploader {
	if cfg.MediaTimeout <= 0 {
		cfg.MediaTimeout = 10 * time.Minute
	}
	return &Uploader{cfg: cfg, persist: persist}
}

var _ repository.IPlatformUploader = (*Uploader)(nil)

func (u *Uploader) Platform() string { return model.PlatformYouTube }

func (u *Uploader) service(ctx context.Context, userID string, creds model.YouTubeCredentials) (*youtube.Service, error) {
	cfg := OAuth2Config(creds)
	ts := NewNotifyingTokenSource(ctx, cfg, Token(creds), func(tok *oauth2.Token) error {
		if u.persist == nil {
			return nil
		}
		return u.persist(ctx, userID, credentialsFrom(cfg, tok))
	})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = u.cfg.MediaTimeout

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if u.cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(u.cfg.Endpoint))
	}
	return youtube.NewService(ctx, opts...)
}

func (u *Uploader) Upload(ctx context.Context, req model.UploadRequest) (*model.UploadResult, error) {
	creds, ok := req.Credentials.(model.YouTubeCredentials)
	if !ok || (creds.AccessToken == "" && creds.RefreshToken == "") {
		return nil, fmt.Errorf("youtube: %w", model.ErrCredentialsMissing)
	}
	svc, err := u.service(ctx, req.UserID, creds)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("youtube: open video: %w", err)
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       req.Metadata.Title,
			Description: req.Metadata.Description,
			Tags:        req.Metadata.Tags,
			CategoryId:  CategoryPeopleAndBlogs,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: req.Metadata.PrivacyStatus},
	}

	lg := logger.GetLogger().WithField("platform", model.PlatformYouTube).WithField("user_id", req.UserID)
	lg.Info("youtube upload start")
	res, err := svc.Videos.Insert([]string{"snippet", "status"}, video).Media(file).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	lg.WithField("youtube_id", res.Id).Info("youtube upload done")

	return &model.UploadResult{
		ID:     res.Id,
		Status: "uploaded",
		URL:    "https://www.youtube.com/watch?v=" + res.Id,
	}, nil
}

func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with %d", gerr.Code)
		}
		return model.NewRejectedError(model.PlatformYouTube, "insert", gerr.Code, msg)
	}
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return model.NewRejectedError(model.PlatformYouTube, "token", rerr.Response.StatusCode, retrieveReason(rerr))
	}
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return model.NewTimeoutError(model.PlatformYouTube, "insert", err.Error())
	}
	return model.NewNetworkError(model.PlatformYouTube, "insert", err)
}
