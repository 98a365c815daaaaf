package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"socialhub/domain/dto"
	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
	"socialhub/infrastructure/secure"
	"socialhub/infrastructure/utils"
)

const (
	minPasswordLength = 8
	resetTokenTTL     = time.Hour
)

type IUserUsecase interface {
	Register(ctx context.Context, req dto.ReqRegister) (model.User, error)
	Login(ctx context.Context, req dto.ReqLogin) (dto.ResLogin, error)
	Me(ctx context.Context, userID string) (model.User, error)
	ChangePassword(ctx context.Context, userID string, req dto.ReqChangePassword) error
	// ForgotPassword never reports whether the email exists.
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req dto.ReqResetPassword) error
}

type UserUsecase struct {
	userRepository repository.IUser
	mailer         repository.IMailer
	secretKey      string
	tokenTTL       time.Duration
	validate       *validator.Validate
}

func NewUserUsecase(userRepository repository.IUser, mailer repository.IMailer, secretKey string, tokenTTL time.Duration) IUserUsecase {
	return &UserUsecase{
		userRepository: userRepository,
		mailer:         mailer,
		secretKey:      secretKey,
		tokenTTL:       tokenTTL,
		validate:       validator.New(),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(password string) error {
	if len([]rune(password)) < minPasswordLength {
		return model.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	return nil
}

func (u *UserUsecase) Register(ctx context.Context, req dto.ReqRegister) (model.User, error) {
	email := normalizeEmail(req.Email)
	if err := u.validate.Var(email, "required,email"); err != nil {
		return model.User{}, model.NewValidationError("email", "is not a valid address")
	}
	if err := checkPassword(req.Password); err != nil {
		return model.User{}, err
	}

	_, err := u.userRepository.GetByEmail(ctx, email)
	if err == nil {
		return model.User{}, fmt.Errorf("email %w", model.ErrConflict)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, err
	}

	hash, err := secure.HashPassword(req.Password)
	if err != nil {
		return model.User{}, err
	}
	suffix, err := utils.RandomHex(6)
	if err != nil {
		return model.User{}, err
	}
	user := model.User{
		ID:           "user_" + suffix,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    utils.GetCurrentTime(),
	}
	if err := u.userRepository.CreateUser(ctx, user); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while creating user")
		return model.User{}, err
	}
	return user, nil
}

func (u *UserUsecase) Login(ctx context.Context, req dto.ReqLogin) (dto.ResLogin, error) {
	user, err := u.userRepository.GetByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, model.ErrNotFound) {
		return dto.ResLogin{}, model.ErrUnauthorized
	}
	if err != nil {
		return dto.ResLogin{}, err
	}
	if !secure.CheckPassword(user.PasswordHash, req.Password) {
		return dto.ResLogin{}, model.ErrUnauthorized
	}
	token, err := utils.GenerateToken(user, u.secretKey, u.tokenTTL)
	if err != nil {
		return dto.ResLogin{}, err
	}
	return dto.ResLogin{AccessToken: token, TokenType: "bearer", UserID: user.ID, Email: user.Email}, nil
}

func (u *UserUsecase) Me(ctx context.Context, userID string) (model.User, error) {
	return u.userRepository.GetByID(ctx, userID)
}

func (u *UserUsecase) ChangePassword(ctx context.Context, userID string, req dto.ReqChangePassword) error {
	user, err := u.userRepository.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !secure.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return model.NewValidationError("current_password", "is incorrect")
	}
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}
	hash, err := secure.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return u.userRepository.UpdatePassword(ctx, user.ID, hash)
}

func (u *UserUsecase) ForgotPassword(ctx context.Context, email string) error {
	lg := logger.GetLogger()
	user, err := u.userRepository.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			lg.WithField("error", err).Error("Error while looking up user for reset")
		}
		return nil
	}
	token, err := utils.RandomURLToken(32)
	if err != nil {
		lg.WithField("error", err).Error("Error while generating reset token")
		return nil
	}
	expiresAt := utils.GetCurrentTime().Add(resetTokenTTL)
	if err := u.userRepository.SetResetToken(ctx, user.ID, &token, &expiresAt); err != nil {
		lg.WithField("error", err).Error("Error while storing reset token")
		return nil
	}
	if err := u.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		lg.WithField("error", err).Error("Error while sending reset email")
	}
	return nil
}

func (u *UserUsecase) ResetPassword(ctx context.Context, req dto.ReqResetPassword) error {
	invalid := model.NewValidationError("token", "invalid or expired")
	user, err := u.userRepository.GetByResetToken(ctx, req.Token)
	if errors.Is(err, model.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}
	if user.ResetExpiresAt == nil || !utils.GetCurrentTime().Before(*user.ResetExpiresAt) {
		return invalid
	}
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}
	hash, err := secure.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return u.userRepository.UpdatePassword(ctx, user.ID, hash)
}
