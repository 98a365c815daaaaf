package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"socialhub/domain/dto"
	"socialhub/domain/model"
	"socialhub/domain/repository"
	"socialhub/infrastructure/logger"
)

// Auth validates the bearer token and stores the caller's id under "user_id".
// GET requests may pass the token as a query parameter, which is how
// EventSource clients authenticate.
func Auth(userRepository repository.IUser, secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw := bearerToken(ctx)
		if raw == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized("Unauthorized"))
			return
		}

		userClaims, err := getClaim(raw, secretKey)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized(reason(err)))
			return
		}

		if _, err := userRepository.GetByID(ctx.Request.Context(), userClaims.Issuer); err != nil {
			logger.GetLogger().WithField("user_id", userClaims.Issuer).WithField("error", err).Warn("Token for unknown user")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized("Unauthorized"))
			return
		}
		ctx.Set("user_id", userClaims.Issuer)
		ctx.Next()
	}
}

func unauthorized(message string) dto.Res {
	return dto.Res{ResponseCode: "401", ResponseMessage: message}
}

func bearerToken(ctx *gin.Context) string {
	authorization := ctx.Request.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authorization, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	if authorization == "" && ctx.Request.Method == http.MethodGet {
		return ctx.Query("token")
	}
	return ""
}

func reason(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return "That's not even a token"
		case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
			return "Token expired"
		}
	}
	return "Unauthorized"
}

func getClaim(raw, secretKey string) (model.UserClaims, error) {
	var userClaims model.UserClaims
	token, err := jwt.ParseWithClaims(raw, &userClaims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return userClaims, err
	}
	if !token.Valid || userClaims.Issuer == "" {
		return userClaims, errors.New("invalid token")
	}
	return userClaims, nil
}
