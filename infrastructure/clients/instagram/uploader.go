package instagram

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/clients/host"
	"socialhub/infrastructure/logger"
)

const DefaultPublishBaseURL = "https://graph.facebook.com/v18.0"

type UploaderConfig struct {
	BaseURL        string
	PollInterval   time.Duration
	PollTimeout    time.Duration
	ControlTimeout time.Duration
	MediaTimeout   time.Duration
}

// Uploader publishes a reel in three steps: create container, wait for
// it to finish processing, publish.
type Uploader struct {
	cfg   UploaderConfig
	api   *host.Host
	media *http.Client
}

func NewUploader(cfg UploaderConfig) *Uploader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultPublishBaseURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 300 * time.Second
	}
	if cfg.ControlTimeout <= 0 {
		cfg.ControlTimeout = 30 * time.Second
	}
	if cfg.MediaTimeout <= 0 {
		cfg.MediaTimeout = 10 * time.Minute
	}
	return &Uploader{
		cfg:   cfg,
		api:   host.NewHost(model.PlatformInstagram, cfg.BaseURL, cfg.ControlTimeout),
		media: &http.Client{Timeout: cfg.MediaTimeout},
	}
}

var _ repository.IPlatformUploader = (*Uploader)(nil)

func (u *Uploader) Platform() string { return model.PlatformInstagram }

func (u *Uploader) Upload(ctx context.Context, req model.UploadRequest) (*model.UploadResult, error) {
	creds, ok := req.Credentials.(model.InstagramCredentials)
	if !ok || creds.AccessToken == "" {
		return nil, fmt.Errorf("instagram: %w", model.ErrCredentialsMissing)
	}
	if creds.UserID == "" {
		return nil, model.NewValidationError("instagram", "no business account id stored")
	}
	lg := logger.GetLogger().WithField("platform", model.PlatformInstagram).WithField("user_id", req.UserID)

	caption := model.TruncateCaption(req.Metadata.Title)
	containerID, err := u.createContainer(ctx, creds, req.FilePath, caption)
	if err != nil {
		return nil, err
	}
	lg.WithField("container_id", containerID).Info("instagram container created")

	if err := u.waitReady(ctx, creds, containerID); err != nil {
		return nil, err
	}

	resp, err := u.api.PostForm(ctx, "publish", "/"+creds.UserID+"/media_publish", publishForm{
		CreationID:  containerID,
		AccessToken: creds.AccessToken,
	})
	if err != nil {
		return nil, err
	}
	mediaID := resp.Get("id").String()
	if mediaID == "" {
		return nil, model.NewRejectedError(model.PlatformInstagram, "publish", resp.StatusCode, "response without media id")
	}
	lg.WithField("media_id", mediaID).Info("instagram reel published")

	return &model.UploadResult{
		ID:      mediaID,
		Status:  "published",
		Details: map[string]string{"container_id": containerID},
	}, nil
}

type publishForm struct {
	CreationID  string `url:"creation_id"`
	AccessToken string `url:"access_token"`
}

type statusQuery struct {
	Fields      string `url:"fields"`
	AccessToken string `url:"access_token"`
}

// createContainer streams the video as multipart so large files are not
// buffered in memory.
func (u *Uploader) createContainer(ctx context.Context, creds model.InstagramCredentials, path, caption string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("instagram: open video: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fields := [][2]string{
			{"media_type", "REELS"},
			{"caption", caption},
			{"share_to_feed", "true"},
			{"access_token", creds.AccessToken},
		}
		for _, kv := range fields {
			if err := mw.WriteField(kv[0], kv[1]); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		part, err := mw.CreateFormFile("video_file", filepath.Base(path))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.api.URL("/"+creds.UserID+"/media"), pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := u.api.DoWith(u.media, "create_container", httpReq)
	pr.Close()
	if err != nil {
		return "", err
	}
	id := resp.Get("id").String()
	if id == "" {
		return "", model.NewRejectedError(model.PlatformInstagram, "create_container", resp.StatusCode, "response without container id")
	}
	return id, nil
}

// waitReady polls the container status until FINISHED, ERROR or the poll
// window runs out. Failed status requests are retried on the next tick.
func (u *Uploader) waitReady(ctx context.Context, creds model.InstagramCredentials, containerID string) error {
	lg := logger.GetLogger().WithField("platform", model.PlatformInstagram).WithField("container_id", containerID)
	deadline := time.Now().Add(u.cfg.PollTimeout)
	ticker := time.NewTicker(u.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if time.Now().After(deadline) {
			return model.NewTimeoutError(model.PlatformInstagram, "poll",
				fmt.Sprintf("container not ready after %s", u.cfg.PollTimeout))
		}
		resp, err := u.api.GetQuery(ctx, "poll", "/"+containerID, statusQuery{
			Fields:      "status_code",
			AccessToken: creds.AccessToken,
		})
		if err != nil {
			lg.WithField("error", err).Warn("instagram status request failed")
		} else {
			switch status := resp.Get("status_code").String(); status {
			case "FINISHED":
				return nil
			case "ERROR":
				msg := "container processing failed"
				if detail := resp.Get("status").String(); detail != "" {
					msg += ": " + detail
				}
				return model.NewRejectedError(model.PlatformInstagram, "poll", resp.StatusCode, msg)
			default:
				lg.WithField("status_code", status).Debug("instagram container still processing")
			}
		}

		select {
		case <-ctx.Done():
			return model.NewTimeoutError(model.PlatformInstagram, "poll", ctx.Err().Error())
		case <-ticker.C:
		}
	}
}
