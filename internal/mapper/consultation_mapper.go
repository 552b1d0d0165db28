package mapper

import (
	"strconv"
	"time"

	"design-companion-be/internal/dto"
	"design-companion-be/internal/entity"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/pkg/consult/library"

	"github.com/dustin/go-humanize"
)

func SessionToSummary(s entity.ChatSession, active bool) dto.SessionSummaryResponse {
	return dto.SessionSummaryResponse{
		Id:           s.Id,
		Title:        s.Title,
		MessageCount: len(s.Messages),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		UpdatedLabel: humanize.Time(time.UnixMilli(s.UpdatedAt)),
		IsActive:     active,
	}
}

// CitationTitles labels citations in order. Nil when there are none.
func CitationTitles(chunks []entity.GroundingChunk) []string {
	if len(chunks) == 0 {
		return nil
	}
	titles := make([]string, len(chunks))
	for i, c := range chunks {
		titles[i] = c.DisplayTitle(i)
	}
	return titles
}

func LibraryFileToResponse(f entity.LibraryFile) dto.LibraryFileResponse {
	res := dto.LibraryFileResponse{LibraryFile: f}
	if f.Size > 0 {
		res.SizeLabel = humanize.IBytes(uint64(f.Size))
	}
	if f.UploadedAt > 0 {
		res.UploadedLabel = humanize.Time(time.UnixMilli(f.UploadedAt))
	}
	return res
}

func SnapshotToResponse(s library.Snapshot, maxFileBytes int64) *dto.LibraryResponse {
	res := &dto.LibraryResponse{
		State:            s.State,
		StoreName:        s.StoreName,
		Files:            make([]dto.LibraryFileResponse, 0, len(s.Files)),
		IsUploading:      s.IsUploading,
		UploadProgress:   s.UploadProgress,
		Error:            s.Error,
		SizeWarning:      s.SizeWarning,
		MaxFileSizeLabel: humanize.IBytes(uint64(maxFileBytes)),
	}
	var total uint64
	for _, f := range s.Files {
		res.Files = append(res.Files, LibraryFileToResponse(f))
		if f.Size > 0 {
			total += uint64(f.Size)
		}
	}
	res.TotalSizeLabel = humanize.IBytes(total)
	return res
}

// StoreToResponse labels the remote byte count, which arrives as a decimal
// string.
func StoreToResponse(st entity.FileSearchStore) dto.StoreResponse {
	res := dto.StoreResponse{FileSearchStore: st}
	if n, err := strconv.ParseUint(st.SizeBytes, 10, 64); err == nil {
		res.SizeLabel = humanize.IBytes(n)
	}
	return res
}

func LogEntryToResponse(l logger.LogEntry) *dto.LogListResponse {
	return &dto.LogListResponse{
		Id:        l.Id,
		Level:     l.Level,
		Module:    l.Module,
		Message:   l.Message,
		CreatedAt: parseLogTime(l.Timestamp),
	}
}

// zap's ISO8601 encoder writes the zone without a colon.
func parseLogTime(v string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05.000Z0700", time.RFC3339Nano} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func LogEntryToDetail(l logger.LogEntry) *dto.LogDetailResponse {
	return &dto.LogDetailResponse{
		LogListResponse: *LogEntryToResponse(l),
		Details:         l.Details,
	}
}
