package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"design-companion-be/pkg/apperror"
)

// UploadFile is a document ready to be sent for indexing.
type UploadFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// ProgressFunc receives a status line and a percentage in [0, 100].
type ProgressFunc func(status string, progress float64)

type UploadResult struct {
	DocumentName string
	MimeType     string
}

const sourceContextKey = "source_context"

// UploadAndIndex uploads a file into storeName and waits for indexing to
// finish, reporting non-decreasing progress.
func (c *Client) UploadAndIndex(
	ctx context.Context,
	storeName string,
	file UploadFile,
	sourceContext string,
	onProgress ProgressFunc,
) (*UploadResult, error) {
	report := func(status string, progress float64) {
		if onProgress != nil {
			onProgress(status, progress)
		}
	}

	report("Initializing upload...", 0)

	op, err := c.startUpload(ctx, storeName, file, sourceContext)
	if err != nil {
		return nil, err
	}

	report("Upload initiated, processing file...", 25)

	maxAttempts := c.cfg.MaxPollAttempts
	attempts := 0
	for !op.Done && attempts < maxAttempts {
		if err := sleepCtx(ctx, c.cfg.PollInterval); err != nil {
			return nil, contextError(err, "upload polling interrupted")
		}

		op, err = c.getOperation(ctx, op.Name)
		if err != nil {
			return nil, err
		}
		attempts++

		progress := math.Min(25+float64(attempts)/float64(maxAttempts)*70, 95)
		elapsed := time.Duration(attempts) * c.cfg.PollInterval
		report(fmt.Sprintf("Processing file... (%ds)", int(elapsed.Seconds())), progress)
	}

	if !op.Done {
		wait := time.Duration(maxAttempts) * c.cfg.PollInterval
		return nil, apperror.New(apperror.KindTimeout, "File upload timed out after "+formatWait(wait))
	}
	if op.Error != nil {
		c.logger.Error(logModule, "Document indexing failed", map[string]interface{}{
			"store":   storeName,
			"file":    file.Name,
			"code":    op.Error.Code,
			"message": op.Error.Message,
		})
		return nil, apperror.Wrap(apperror.KindFile, errors.New(op.Error.Message), "document indexing failed")
	}

	report("File successfully indexed!", 100)

	result := &UploadResult{}
	if len(op.Response) > 0 {
		var res uploadResponse
		if err := json.Unmarshal(op.Response, &res); err == nil {
			result.DocumentName = res.DocumentName
			result.MimeType = res.MimeType
		}
	}
	return result, nil
}

func (c *Client) startUpload(ctx context.Context, storeName string, file UploadFile, sourceContext string) (*Operation, error) {
	meta := uploadMetadata{
		DisplayName: file.Name,
		MimeType:    file.MimeType,
		ChunkingConfig: ChunkingConfig{WhiteSpaceConfig: WhiteSpaceConfig{
			MaxTokensPerChunk: c.cfg.MaxTokensPerChunk,
			MaxOverlapTokens:  c.cfg.MaxOverlapTokens,
		}},
	}
	if sourceContext != "" {
		meta.CustomMetadata = []CustomMetadata{{Key: sourceContextKey, StringValue: sourceContext}}
	}

	body, contentType, err := multipartRelated(meta, file)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindFile, err, "failed to prepare upload")
	}

	var op Operation
	path := "/upload/v1beta/" + storeName + ":uploadToFileSearchStore"
	headers := map[string]string{"X-Goog-Upload-Protocol": "multipart"}
	if err := c.do(ctx, http.MethodPost, path, nil, body, contentType, headers, &op); err != nil {
		return nil, err
	}
	c.logger.Info(logModule, "Upload accepted", map[string]interface{}{
		"store":     storeName,
		"file":      file.Name,
		"operation": op.Name,
	})
	return &op, nil
}

func (c *Client) getOperation(ctx context.Context, name string) (*Operation, error) {
	var op Operation
	if err := c.doJSON(ctx, http.MethodGet, "/v1beta/"+name, nil, nil, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		op.Name = name
	}
	return &op, nil
}

func multipartRelated(meta uploadMetadata, file UploadFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	metaPart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json; charset=UTF-8"}})
	if err != nil {
		return nil, "", err
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, "", err
	}

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	filePart, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {mimeType}})
	if err != nil {
		return nil, "", err
	}
	if _, err := filePart.Write(file.Data); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, "multipart/related; boundary=" + w.Boundary(), nil
}

func formatWait(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return d.String()
}
