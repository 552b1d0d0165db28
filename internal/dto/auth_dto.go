package dto

import (
	"time"

	"design-companion-be/internal/entity"
)

type SelectRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ARCHITECT ADMIN"`
}

type SelectRoleResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	ClientId  string           `json:"clientId"`
	Auth      entity.AuthState `json:"auth"`
}

type SetupStatusResponse struct {
	HasApiKey        bool   `json:"hasApiKey"`
	Model            string `json:"model"`
	MaxFileSizeBytes int64  `json:"maxFileSizeBytes"`
	MaxFileSizeLabel string `json:"maxFileSizeLabel"`
}
