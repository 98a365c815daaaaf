package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socialhub/domain/dto"
	"socialhub/infrastructure/logger"
	"socialhub/usecase"
)

const forgotPasswordMessage = "If the email exists, a password reset link has been sent"

type IUserHandler interface {
	Login(c *gin.Context)
	Register(c *gin.Context)
	Me(c *gin.Context)
	ChangePassword(c *gin.Context)
	ForgotPassword(c *gin.Context)
	ResetPassword(c *gin.Context)
}

type UserHandler struct {
	userUsecase usecase.IUserUsecase
}

func NewUserHandler(userUsecase usecase.IUserUsecase) IUserHandler {
	return &UserHandler{userUsecase: userUsecase}
}

func badRequest(c *gin.Context, err error) {
	logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
	c.JSON(http.StatusBadRequest, dto.Res{ResponseCode: "400", ResponseMessage: ErrorUnmarshal})
}

func (userHandler *UserHandler) Login(c *gin.Context) {
	var req dto.ReqLogin
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := userHandler.userUsecase.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (userHandler *UserHandler) Register(c *gin.Context) {
	var req dto.ReqRegister
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := userHandler.userUsecase.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.Res{ResponseCode: "201", ResponseMessage: "User registered successfully", Data: user})
}

func (userHandler *UserHandler) Me(c *gin.Context) {
	user, err := userHandler.userUsecase.Me(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (userHandler *UserHandler) ChangePassword(c *gin.Context) {
	var req dto.ReqChangePassword
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := userHandler.userUsecase.ChangePassword(c.Request.Context(), c.GetString("user_id"), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Password changed successfully"})
}

func (userHandler *UserHandler) ForgotPassword(c *gin.Context) {
	var req dto.ReqForgotPassword
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	_ = userHandler.userUsecase.ForgotPassword(c.Request.Context(), req.Email)
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: forgotPasswordMessage})
}

func (userHandler *UserHandler) ResetPassword(c *gin.Context) {
	var req dto.ReqResetPassword
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := userHandler.userUsecase.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Res{ResponseCode: "200", ResponseMessage: "Password has been reset successfully"})
}
