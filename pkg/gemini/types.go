package gemini

import (
	"encoding/json"
	"strings"

	"design-companion-be/internal/entity"
)

type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type FileSearch struct {
	FileSearchStoreNames []string `json:"fileSearchStoreNames"`
	MetadataFilter       string   `json:"metadataFilter,omitempty"`
}

type Tool struct {
	FileSearch *FileSearch `json:"fileSearch,omitempty"`
}

type Schema struct {
	Type       string             `json:"type"`
	Properties map[string]*Schema `json:"properties,omitempty"`
	Items      *Schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

type GenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
}

type GenerateContentRequest struct {
	Contents          []Content         `json:"contents"`
	SystemInstruction *Content          `json:"systemInstruction,omitempty"`
	Tools             []Tool            `json:"tools,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type GroundingMetadata struct {
	GroundingChunks []entity.GroundingChunk `json:"groundingChunks"`
}

type Candidate struct {
	Content           *Content           `json:"content"`
	FinishReason      string             `json:"finishReason,omitempty"`
	GroundingMetadata *GroundingMetadata `json:"groundingMetadata,omitempty"`
}

type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Text concatenates the text parts of the first candidate.
func (r *GenerateContentResponse) Text() string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (r *GenerateContentResponse) GroundingChunks() []entity.GroundingChunk {
	if len(r.Candidates) == 0 || r.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	return r.Candidates[0].GroundingMetadata.GroundingChunks
}

type listStoresResponse struct {
	FileSearchStores []entity.FileSearchStore `json:"fileSearchStores"`
	NextPageToken    string                   `json:"nextPageToken"`
}

type CustomMetadata struct {
	Key         string `json:"key"`
	StringValue string `json:"stringValue"`
}

type WhiteSpaceConfig struct {
	MaxTokensPerChunk int `json:"maxTokensPerChunk"`
	MaxOverlapTokens  int `json:"maxOverlapTokens"`
}

type ChunkingConfig struct {
	WhiteSpaceConfig WhiteSpaceConfig `json:"whiteSpaceConfig"`
}

type uploadMetadata struct {
	DisplayName    string           `json:"displayName"`
	MimeType       string           `json:"mimeType,omitempty"`
	CustomMetadata []CustomMetadata `json:"customMetadata,omitempty"`
	ChunkingConfig ChunkingConfig   `json:"chunkingConfig"`
}

type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Operation is a long-running indexing job.
type Operation struct {
	Name     string          `json:"name"`
	Done     bool            `json:"done"`
	Error    *OperationError `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
}

type uploadResponse struct {
	DocumentName string `json:"documentName"`
	MimeType     string `json:"mimeType"`
	SizeBytes    string `json:"sizeBytes"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
