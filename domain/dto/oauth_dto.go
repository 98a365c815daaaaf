package dto

import "socialhub/domain/model"

type ConnectResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	AuthURL  string `json:"auth_url"`
	UserID   string `json:"user_id"`
	Platform string `json:"platform"`
}

type PlatformStatusResponse struct {
	UserID    string                     `json:"user_id"`
	Platforms []model.PlatformConnection `json:"platforms"`
}
