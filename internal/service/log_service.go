package service

import (
	"context"

	"design-companion-be/internal/dto"
	"design-companion-be/internal/mapper"
	"design-companion-be/internal/pkg/logger"
)

// LogReader is the read side of the application logger.
type LogReader interface {
	GetLogs(level string, limit, offset int) ([]logger.LogEntry, error)
	GetLogById(id string) (*logger.LogEntry, error)
}

type ILogService interface {
	GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error)
	GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error)
}

type logService struct {
	reader LogReader
}

func NewLogService(reader LogReader) ILogService {
	return &logService{reader: reader}
}

func (s *logService) GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	logs, err := s.reader.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogListResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, mapper.LogEntryToResponse(l))
	}
	return res, nil
}

func (s *logService) GetLogDetail(ctx context.Context, logId string) (*dto.LogDetailResponse, error) {
	l, err := s.reader.GetLogById(logId)
	if err != nil {
		return nil, err
	}
	return mapper.LogEntryToDetail(*l), nil
}
