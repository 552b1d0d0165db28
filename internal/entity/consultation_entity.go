package entity

import "fmt"

const (
	MessageRoleUser  = "user"
	MessageRoleModel = "model"

	DefaultSessionTitle = "New Consultation"
)

// ChatSession is persisted as JSON under the sessions key, so field names keep
// the browser-compatible camelCase shape. Timestamps are epoch milliseconds.
type ChatSession struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	UpdatedAt int64     `json:"updatedAt"`
	CreatedAt int64     `json:"createdAt,omitempty"`
}

type Message struct {
	Id        string           `json:"id"`
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	Timestamp int64            `json:"timestamp"`
	Image     string           `json:"image,omitempty"`
	Citations []GroundingChunk `json:"citations,omitempty"`
	Analysis  *DesignAnalysis  `json:"analysis,omitempty"`
	IsError   bool             `json:"isError,omitempty"`
}

type DesignAnalysis struct {
	Rating          float64    `json:"rating"`
	Principles      Principles `json:"principles"`
	Recommendations []string   `json:"recommendations"`
}

type Principles struct {
	Safety            string `json:"safety"`
	Neuroarchitecture string `json:"neuroarchitecture"`
	Acoustics         string `json:"acoustics"`
	Lighting          string `json:"lighting"`
}

type RetrievedContext struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

type FileSearchStoreRef struct {
	DisplayName string `json:"displayName,omitempty"`
}

type GroundingChunk struct {
	RetrievedContext *RetrievedContext   `json:"retrievedContext,omitempty"`
	FileSearchStore  *FileSearchStoreRef `json:"fileSearchStore,omitempty"`
	Text             string              `json:"text,omitempty"`
}

// DisplayTitle is the label shown for the citation at position index
// (zero-based). It never fails; a chunk with nothing to show gets a
// numbered placeholder.
func (c GroundingChunk) DisplayTitle(index int) string {
	if c.RetrievedContext != nil && c.RetrievedContext.Title != "" {
		return c.RetrievedContext.Title
	}
	if c.FileSearchStore != nil && c.FileSearchStore.DisplayName != "" {
		return c.FileSearchStore.DisplayName
	}
	if c.Text != "" {
		return c.Text
	}
	return fmt.Sprintf("Resource %d", index+1)
}
