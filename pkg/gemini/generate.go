package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"design-companion-be/internal/entity"
	"design-companion-be/pkg/apperror"
)

// SearchOptions attaches a document store to a generation call.
type SearchOptions struct {
	StoreName      string
	MetadataFilter string
}

type AnalysisResult struct {
	Text      string
	Analysis  entity.DesignAnalysis
	Citations []entity.GroundingChunk
}

type ChatResult struct {
	Text      string
	Citations []entity.GroundingChunk
}

type analysisPayload struct {
	Answer          *string            `json:"answer"`
	Rating          *float64           `json:"rating"`
	Analysis        *entity.Principles `json:"analysis"`
	Recommendations *[]string          `json:"recommendations"`
}

// Analyze requests a structured design critique for an optional image.
func (c *Client) Analyze(ctx context.Context, prompt, imageURI string, opts SearchOptions) (*AnalysisResult, error) {
	parts := make([]Part, 0, 2)
	if imageURI != "" {
		mimeType, data := parseDataURI(imageURI)
		parts = append(parts, Part{InlineData: &InlineData{MimeType: mimeType, Data: data}})
	}
	parts = append(parts, Part{Text: prompt})

	req := c.newRequest([]Content{{Role: entity.MessageRoleUser, Parts: parts}}, opts)
	req.GenerationConfig = &GenerationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   analysisSchema,
	}

	res, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	payload, err := decodeAnalysis(res.Text())
	if err != nil {
		return nil, err
	}

	recommendations := *payload.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return &AnalysisResult{
		Text: *payload.Answer,
		Analysis: entity.DesignAnalysis{
			Rating:          *payload.Rating,
			Principles:      *payload.Analysis,
			Recommendations: recommendations,
		},
		Citations: res.GroundingChunks(),
	}, nil
}

// Chat continues a conversation. Only role and text of history are sent.
func (c *Client) Chat(ctx context.Context, message string, history []entity.Message, opts SearchOptions) (*ChatResult, error) {
	contents := make([]Content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, Content{
			Role:  m.Role,
			Parts: []Part{{Text: m.Content}},
		})
	}
	contents = append(contents, Content{
		Role:  entity.MessageRoleUser,
		Parts: []Part{{Text: message}},
	})

	res, err := c.generate(ctx, c.newRequest(contents, opts))
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		Text:      res.Text(),
		Citations: res.GroundingChunks(),
	}, nil
}

func (c *Client) newRequest(contents []Content, opts SearchOptions) *GenerateContentRequest {
	req := &GenerateContentRequest{
		Contents:          contents,
		SystemInstruction: &Content{Parts: []Part{{Text: c.cfg.SystemPrompt}}},
	}
	if opts.StoreName != "" {
		req.Tools = []Tool{{FileSearch: &FileSearch{
			FileSearchStoreNames: []string{opts.StoreName},
			MetadataFilter:       opts.MetadataFilter,
		}}}
	}
	return req
}

func (c *Client) generate(ctx context.Context, req *GenerateContentRequest) (*GenerateContentResponse, error) {
	var res GenerateContentResponse
	path := "/v1beta/models/" + c.cfg.Model + ":generateContent"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func decodeAnalysis(text string) (*analysisPayload, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload analysisPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, err, "invalid analysis response")
	}

	missing := make([]string, 0)
	if payload.Answer == nil {
		missing = append(missing, "answer")
	}
	if payload.Rating == nil {
		missing = append(missing, "rating")
	}
	if payload.Analysis == nil {
		missing = append(missing, "analysis")
	}
	if payload.Recommendations == nil {
		missing = append(missing, "recommendations")
	}
	if len(missing) > 0 {
		return nil, apperror.New(apperror.KindValidation,
			"invalid analysis response: missing "+strings.Join(missing, ", "))
	}
	return &payload, nil
}

// parseDataURI splits "data:<mime>;base64,<data>". Bare base64 is treated as JPEG.
func parseDataURI(uri string) (mimeType, data string) {
	mimeType = "image/jpeg"
	header, payload, found := strings.Cut(uri, ",")
	if !found {
		return mimeType, uri
	}
	if rest, ok := strings.CutPrefix(header, "data:"); ok {
		if mt, _, _ := strings.Cut(rest, ";"); mt != "" {
			mimeType = mt
		}
	}
	return mimeType, payload
}
