package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"socialhub/domain/model"
	"socialhub/infrastructure/logger"
	"socialhub/usecase"
)

const maxClientSecretsBytes = 1 << 20

type IOAuthHandler interface {
	Connect(ctx *gin.Context)
	ClientSecrets(ctx *gin.Context)
	Callback(ctx *gin.Context)
	Refresh(ctx *gin.Context)
	Disconnect(ctx *gin.Context)
	Status(ctx *gin.Context)
}

type OAuthHandler struct {
	oauthUsecase usecase.IOAuthUsecase
}

func NewOAuthHandler(oauthUsecase usecase.IOAuthUsecase) IOAuthHandler {
	return &OAuthHandler{oauthUsecase: oauthUsecase}
}

func platformParam(ctx *gin.Context) string {
	return strings.ToLower(ctx.Param("platform"))
}

func (h *OAuthHandler) Connect(ctx *gin.Context) {
	res, err := h.oauthUsecase.Connect(ctx.Request.Context(), ctx.GetString("user_id"), platformParam(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// ClientSecrets accepts a client_secrets_file upload or a raw JSON body.
func (h *OAuthHandler) ClientSecrets(ctx *gin.Context) {
	var (
		data []byte
		err  error
	)
	if fileHeader, ferr := ctx.FormFile("client_secrets_file"); ferr == nil {
		file, oerr := fileHeader.Open()
		if oerr != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "client secrets file could not be read"})
			return
		}
		defer file.Close()
		data, err = io.ReadAll(io.LimitReader(file, maxClientSecretsBytes))
	} else {
		data, err = io.ReadAll(io.LimitReader(ctx.Request.Body, maxClientSecretsBytes))
	}
	if err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "client secrets could not be read"})
		return
	}

	res, err := h.oauthUsecase.RegisterClientSecrets(ctx.Request.Context(), ctx.GetString("user_id"), model.PlatformYouTube, data)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *OAuthHandler) Callback(ctx *gin.Context) {
	params := model.CallbackParams{
		Code:             ctx.Query("code"),
		State:            ctx.Query("state"),
		Error:            ctx.Query("error"),
		ErrorDescription: ctx.Query("error_description"),
	}
	ctx.Redirect(http.StatusFound, h.oauthUsecase.Callback(ctx.Request.Context(), platformParam(ctx), params))
}

func (h *OAuthHandler) Refresh(ctx *gin.Context) {
	platform := platformParam(ctx)
	if err := h.oauthUsecase.Refresh(ctx.Request.Context(), ctx.GetString("user_id"), platform); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token refreshed successfully", "platform": platform})
}

func (h *OAuthHandler) Disconnect(ctx *gin.Context) {
	platform := platformParam(ctx)
	if err := h.oauthUsecase.Disconnect(ctx.Request.Context(), ctx.GetString("user_id"), platform); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "Disconnected successfully", "platform": platform})
}

func (h *OAuthHandler) Status(ctx *gin.Context) {
	res, err := h.oauthUsecase.Status(ctx.Request.Context(), ctx.GetString("user_id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}
