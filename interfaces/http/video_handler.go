package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socialhub/domain/dto"
	"socialhub/infrastructure/logger"
	"socialhub/usecase"
)

type IVideoHandler interface {
	Upload(ctx *gin.Context)
	List(ctx *gin.Context)
	Get(ctx *gin.Context)
	Update(ctx *gin.Context)
	Delete(ctx *gin.Context)
	History(ctx *gin.Context)
}

type VideoHandler struct {
	videoUsecase usecase.IVideoUsecase
}

func NewVideoHandler(videoUsecase usecase.IVideoUsecase) IVideoHandler {
	return &VideoHandler{videoUsecase: videoUsecase}
}

func (h *VideoHandler) Upload(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while opening uploaded file")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "file could not be read"})
		return
	}
	defer file.Close()

	req := dto.SubmitVideoRequest{
		UserID:        userID,
		FileName:      fileHeader.Filename,
		ContentType:   fileHeader.Header.Get("Content-Type"),
		Size:          fileHeader.Size,
		Title:         ctx.PostForm("title"),
		Description:   ctx.PostForm("description"),
		Tags:          ctx.PostForm("tags"),
		PrivacyStatus: ctx.PostForm("privacy_status"),
		Platforms:     ctx.PostForm("platforms"),
	}
	video, _, err := h.videoUsecase.Submit(ctx.Request.Context(), req, file)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SubmitVideoResponse{
		VideoID:   video.ID,
		Status:    video.Status,
		Message:   "Video upload started. Processing in background.",
		Platforms: video.Platforms,
		CreatedAt: video.CreatedAt,
	})
}

func (h *VideoHandler) List(ctx *gin.Context) {
	userID := ctx.GetString("user_id")
	videos, err := h.videoUsecase.ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	res := dto.VideoListResponse{UserID: userID, Total: len(videos), Videos: make([]dto.VideoStatusResponse, 0, len(videos))}
	for _, v := range videos {
		res.Videos = append(res.Videos, dto.NewVideoStatusResponse(v))
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *VideoHandler) Get(ctx *gin.Context) {
	video, err := h.videoUsecase.Get(ctx.Request.Context(), ctx.Param("videoId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewVideoStatusResponse(video))
}

func (h *VideoHandler) Update(ctx *gin.Context) {
	var req dto.UpdateVideoRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBind(&req); err != nil {
			logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	videoID := ctx.Param("videoId")
	video, err := h.videoUsecase.Update(ctx.Request.Context(), videoID, ctx.GetString("user_id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.UpdateVideoResponse{
		Success: true,
		Message: "Video updated successfully",
		Video:   dto.NewVideoStatusResponse(video),
	})
}

func (h *VideoHandler) Delete(ctx *gin.Context) {
	videoID := ctx.Param("videoId")
	if err := h.videoUsecase.Delete(ctx.Request.Context(), videoID, ctx.GetString("user_id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.DeleteVideoResponse{Success: true, Message: "Video deleted successfully", VideoID: videoID})
}

func (h *VideoHandler) History(ctx *gin.Context) {
	videoID := ctx.Param("videoId")
	events, err := h.videoUsecase.History(ctx.Request.Context(), videoID, ctx.GetString("user_id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"video_id": videoID, "events": events})
}
