package service

import (
	"strings"

	"design-companion-be/internal/dto"

	"github.com/dustin/go-humanize"
)

type ISetupService interface {
	Status() *dto.SetupStatusResponse
	HasAPIKey() bool
}

type setupService struct {
	key          func() string
	model        string
	maxFileBytes int64
}

// NewSetupService reads the credential through key on every call.
func NewSetupService(key func() string, model string, maxFileBytes int64) ISetupService {
	return &setupService{key: key, model: model, maxFileBytes: maxFileBytes}
}

func (s *setupService) HasAPIKey() bool {
	return s.key != nil && strings.TrimSpace(s.key()) != ""
}

func (s *setupService) Status() *dto.SetupStatusResponse {
	return &dto.SetupStatusResponse{
		HasApiKey:        s.HasAPIKey(),
		Model:            s.model,
		MaxFileSizeBytes: s.maxFileBytes,
		MaxFileSizeLabel: humanize.IBytes(uint64(s.maxFileBytes)),
	}
}
