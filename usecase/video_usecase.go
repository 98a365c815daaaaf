package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"socialhub/domain/dto"
	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
	"socialhub/infrastructure/staging"
	"socialhub/infrastructure/utils"
	"socialhub/infrastructure/worker"
)

var (
	videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}
	privacyStatuses = []string{"private", "public", "unlisted"}
)

const (
	defaultPrivacy = "private"
	publishTimeout = 5 * time.Second
)

type IVideoUsecase interface {
	// Submit validates and stages the upload, stores a pending record and
	// schedules the fan-out. The returned task completes when processing ends.
	Submit(ctx context.Context, req dto.SubmitVideoRequest, file io.Reader) (*model.Video, *worker.Task, error)
	Process(ctx context.Context, videoID, filePath string) error
	Get(ctx context.Context, videoID string) (*model.Video, error)
	ListForUser(ctx context.Context, userID string) ([]*model.Video, error)
	Update(ctx context.Context, videoID, userID string, req dto.UpdateVideoRequest) (*model.Video, error)
	Delete(ctx context.Context, videoID, userID string) error
	History(ctx context.Context, videoID, userID string) ([]model.UploadEvent, error)
}

type VideoUsecase struct {
	videoRepo    repository.IVideo
	credentials  ICredentialResolver
	uploaders    map[string]repository.IPlatformUploader
	staging      staging.IStaging
	runner       worker.IRunner
	history      repository.IUploadHistory
	sinks        []repository.IUploadEventSink
	maxFileBytes int64
}

func NewVideoUsecase(
	videoRepo repository.IVideo,
	credentials ICredentialResolver,
	uploaders []repository.IPlatformUploader,
	stagingArea staging.IStaging,
	runner worker.IRunner,
	history repository.IUploadHistory,
	maxFileSizeMB int64,
	sinks ...repository.IUploadEventSink,
) IVideoUsecase {
	return &VideoUsecase{
		videoRepo:    videoRepo,
		credentials:  credentials,
		uploaders:    lo.KeyBy(uploaders, func(u repository.IPlatformUploader) string { return u.Platform() }),
		staging:      stagingArea,
		runner:       runner,
		history:      history,
		sinks:        lo.Filter(sinks, func(s repository.IUploadEventSink, _ int) bool { return s != nil }),
		maxFileBytes: maxFileSizeMB * 1024 * 1024,
	}
}

// SplitList parses a comma-separated form value into trimmed, unique, non-empty items.
func SplitList(raw string, lower bool) []string {
	items := lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		s = strings.TrimSpace(s)
		if lower {
			s = strings.ToLower(s)
		}
		return s
	})
	return lo.Uniq(lo.Compact(items))
}

// IsVideoFile rejects an upload only when both the declared type and the
// file extension fail to identify a video.
func IsVideoFile(contentType, fileName string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return true
	}
	return lo.Contains(videoExtensions, strings.ToLower(filepath.Ext(fileName)))
}

func (u *VideoUsecase) validate(req dto.SubmitVideoRequest) (platforms, tags []string, privacy string, err error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, nil, "", model.NewValidationError("title", "is required")
	}
	if !IsVideoFile(req.ContentType, req.FileName) {
		return nil, nil, "", model.NewValidationError("file", "must be a video file")
	}
	if u.maxFileBytes > 0 && req.Size > u.maxFileBytes {
		return nil, nil, "", model.NewValidationError("file", fmt.Sprintf("exceeds %d MB", u.maxFileBytes/(1024*1024)))
	}
	platforms = SplitList(req.Platforms, true)
	if len(platforms) == 0 {
		return nil, nil, "", model.NewValidationError("platforms", "at least one platform is required")
	}
	if bad := lo.Reject(platforms, func(p string, _ int) bool { return model.IsSupportedPlatform(p) }); len(bad) > 0 {
		return nil, nil, "", model.NewValidationError("platforms", "unsupported: "+strings.Join(bad, ", "))
	}
	privacy = strings.ToLower(strings.TrimSpace(req.PrivacyStatus))
	if privacy == "" {
		privacy = defaultPrivacy
	}
	if !lo.Contains(privacyStatuses, privacy) {
		return nil, nil, "", model.NewValidationError("privacy_status", "must be private, public or unlisted")
	}
	return platforms, SplitList(req.Tags, false), privacy, nil
}

func (u *VideoUsecase) Submit(ctx context.Context, req dto.SubmitVideoRequest, file io.Reader) (*model.Video, *worker.Task, error) {
	platforms, tags, privacy, err := u.validate(req)
	if err != nil {
		return nil, nil, err
	}

	path, size, err := u.staging.Save(file, req.FileName)
	if err != nil {
		return nil, nil, fmt.Errorf("stage upload: %w", err)
	}
	if u.maxFileBytes > 0 && size > u.maxFileBytes {
		_ = u.staging.Remove(path)
		return nil, nil, model.NewValidationError("file", fmt.Sprintf("exceeds %d MB", u.maxFileBytes/(1024*1024)))
	}

	id, err := uuid.NewV7()
	if err != nil {
		_ = u.staging.Remove(path)
		return nil, nil, err
	}
	video := &model.Video{
		ID:            id.String(),
		UserID:        req.UserID,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Tags:          tags,
		Platforms:     platforms,
		PrivacyStatus: privacy,
		Status:        model.VideoStatusPending,
		UploadResults: map[string]model.UploadResult{},
		Errors:        map[string]string{},
		CreatedAt:     utils.GetCurrentTime(),
	}
	if err := u.videoRepo.Create(ctx, video); err != nil {
		_ = u.staging.Remove(path)
		return nil, nil, fmt.Errorf("create video: %w", err)
	}
	logger.GetLogger().WithField("video_id", video.ID).WithField("user_id", video.UserID).
		WithField("platforms", platforms).Info("Video accepted")

	task := u.runner.Go("process:"+video.ID, func(ctx context.Context) error {
		return u.Process(ctx, video.ID, path)
	})
	return video, task, nil
}

// Process fans the staged file out to every requested platform in order.
// The staged file is removed however processing ends.
func (u *VideoUsecase) Process(ctx context.Context, videoID, filePath string) (err error) {
	defer func() { _ = u.staging.Remove(filePath) }()

	var video *model.Video
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fan-out panicked: %v", r)
		}
		if err == nil {
			return
		}
		if video == nil {
			u.failUnloaded(ctx, videoID, err)
			return
		}
		u.abort(ctx, video, err)
	}()

	video, err = u.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return fmt.Errorf("load video %s: %w", videoID, err)
	}
	lg := logger.GetLogger().WithField("video_id", videoID)

	video.Status = model.VideoStatusProcessing
	video.Touch(utils.GetCurrentTime())
	if err := u.videoRepo.UpdateProgress(ctx, video); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	u.publish(ctx, video, model.EventVideoProcessing, "", nil, "")

	for _, platform := range video.Platforms {
		res, uerr := u.uploadTo(ctx, video, platform, filePath)
		if uerr != nil {
			lg.WithField("platform", platform).WithField("error", uerr).Warn("Platform upload failed")
			video.RecordError(platform, uerr.Error())
			u.publish(ctx, video, model.EventPlatformFailed, platform, nil, uerr.Error())
		} else {
			lg.WithField("platform", platform).WithField("id", res.ID).Info("Platform upload succeeded")
			video.RecordResult(platform, *res)
			u.publish(ctx, video, model.EventPlatformUploaded, platform, res, "")
		}
		video.Touch(utils.GetCurrentTime())
		if perr := u.videoRepo.UpdateProgress(ctx, video); perr != nil {
			lg.WithField("platform", platform).WithField("error", perr).Error("Error while saving platform progress")
		}
	}

	video.Status = video.FinalStatus()
	video.Touch(utils.GetCurrentTime())
	if err := u.videoRepo.UpdateProgress(ctx, video); err != nil {
		return fmt.Errorf("save final status: %w", err)
	}
	u.publish(ctx, video, model.EventVideoCompleted, "", nil, "")
	lg.WithField("status", video.Status).Info("Video processing finished")
	return nil
}

func (u *VideoUsecase) uploadTo(ctx context.Context, video *model.Video, platform, filePath string) (*model.UploadResult, error) {
	uploader, ok := u.uploaders[platform]
	if !ok {
		return nil, fmt.Errorf("%s: %w", platform, model.ErrUnsupportedPlatform)
	}
	creds, err := u.credentials.Resolve(ctx, video.UserID, platform)
	if err != nil {
		return nil, err
	}
	res, err := uploader.Upload(ctx, model.UploadRequest{
		UserID:      video.UserID,
		Credentials: creds,
		FilePath:    filePath,
		Metadata: model.UploadMetadata{
			Title:         video.Title,
			Description:   video.Description,
			Tags:          video.Tags,
			PrivacyStatus: video.PrivacyStatus,
		},
	})
	if err == nil && res == nil {
		err = fmt.Errorf("%s returned no result", platform)
	}
	return res, err
}

// abort forces the video into failed and marks every platform that was
// never attempted.
func (u *VideoUsecase) abort(ctx context.Context, video *model.Video, cause error) {
	for _, p := range video.Platforms {
		_, done := video.UploadResults[p]
		_, failed := video.Errors[p]
		if !done && !failed {
			video.RecordError(p, "processing aborted: "+cause.Error())
		}
	}
	video.Status = model.VideoStatusFailed
	video.Touch(utils.GetCurrentTime())
	if err := u.videoRepo.UpdateProgress(context.WithoutCancel(ctx), video); err != nil {
		logger.GetLogger().WithField("video_id", video.ID).WithField("error", err).Error("Error while marking video failed")
	}
	u.publish(ctx, video, model.EventVideoCompleted, "", nil, cause.Error())
}

// failUnloaded marks a video failed when its record could not be read.
// A deleted record is left alone.
func (u *VideoUsecase) failUnloaded(ctx context.Context, videoID string, cause error) {
	lg := logger.GetLogger().WithField("video_id", videoID).WithField("error", cause)
	if errors.Is(cause, model.ErrNotFound) {
		lg.Warn("Video removed before processing")
		return
	}
	if err := u.videoRepo.UpdateStatus(context.WithoutCancel(ctx), videoID, model.VideoStatusFailed, utils.GetCurrentTime()); err != nil {
		lg.WithField("update_error", err).Error("Error while marking video failed")
		return
	}
	lg.Error("Video processing failed before start")
}

func (u *VideoUsecase) publish(ctx context.Context, video *model.Video, typ, platform string, res *model.UploadResult, msg string) {
	if len(u.sinks) == 0 {
		return
	}
	event := model.UploadEvent{
		Type:       typ,
		VideoID:    video.ID,
		UserID:     video.UserID,
		Platform:   platform,
		Status:     video.Status,
		Result:     res,
		Error:      msg,
		OccurredAt: utils.GetCurrentTime(),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for _, sink := range u.sinks {
		if err := sink.Publish(pctx, event); err != nil {
			logger.GetLogger().WithField("video_id", video.ID).WithField("event", typ).
				WithField("error", err).Warn("Error while publishing upload event")
		}
	}
}

func (u *VideoUsecase) Get(ctx context.Context, videoID string) (*model.Video, error) {
	return u.videoRepo.GetByID(ctx, videoID)
}

func (u *VideoUsecase) ListForUser(ctx context.Context, userID string) ([]*model.Video, error) {
	return u.videoRepo.ListByUser(ctx, userID)
}

func (u *VideoUsecase) owned(ctx context.Context, videoID, userID string) (*model.Video, error) {
	video, err := u.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.UserID != userID {
		return nil, model.ErrForbidden
	}
	return video, nil
}

// toVideoUpdate normalizes the editable fields the way Submit does.
func toVideoUpdate(req dto.UpdateVideoRequest) (model.VideoUpdate, error) {
	var upd model.VideoUpdate
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return upd, model.NewValidationError("title", "cannot be empty")
		}
		upd.Title = &title
	}
	upd.Description = req.Description
	if req.Tags != nil {
		tags := SplitList(*req.Tags, false)
		upd.Tags = &tags
	}
	if req.PrivacyStatus != nil {
		privacy := strings.ToLower(strings.TrimSpace(*req.PrivacyStatus))
		if !lo.Contains(privacyStatuses, privacy) {
			return upd, model.NewValidationError("privacy_status", "must be private, public or unlisted")
		}
		upd.PrivacyStatus = &privacy
	}
	return upd, nil
}

func (u *VideoUsecase) Update(ctx context.Context, videoID, userID string, req dto.UpdateVideoRequest) (*model.Video, error) {
	video, err := u.owned(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}
	upd, err := toVideoUpdate(req)
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return video, nil
	}
	video.Apply(upd)
	video.Touch(utils.GetCurrentTime())
	if err := u.videoRepo.UpdateMetadata(ctx, video); err != nil {
		return nil, fmt.Errorf("update video: %w", err)
	}
	return video, nil
}

func (u *VideoUsecase) Delete(ctx context.Context, videoID, userID string) error {
	if _, err := u.owned(ctx, videoID, userID); err != nil {
		return err
	}
	return u.videoRepo.Delete(ctx, videoID)
}

func (u *VideoUsecase) History(ctx context.Context, videoID, userID string) ([]model.UploadEvent, error) {
	if _, err := u.owned(ctx, videoID, userID); err != nil {
		return nil, err
	}
	if u.history == nil {
		return []model.UploadEvent{}, nil
	}
	return u.history.History(ctx, videoID)
}
