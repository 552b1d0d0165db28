package entity

type FileStatus string

const (
	FileStatusIndexed    FileStatus = "indexed"
	FileStatusProcessing FileStatus = "processing"
	FileStatusError      FileStatus = "error"
)

type LibraryFile struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"displayName"`
	Status      FileStatus `json:"status"`
	Size        int64      `json:"size,omitempty"`
	UploadedAt  int64      `json:"uploadedAt,omitempty"`
	RemoteName  string     `json:"remoteName,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// FileSearchStore mirrors the remote store resource.
type FileSearchStore struct {
	Name                  string `json:"name"`
	DisplayName           string `json:"displayName"`
	CreateTime            string `json:"createTime,omitempty"`
	UpdateTime            string `json:"updateTime,omitempty"`
	ActiveDocumentsCount  string `json:"activeDocumentsCount,omitempty"`
	PendingDocumentsCount string `json:"pendingDocumentsCount,omitempty"`
	FailedDocumentsCount  string `json:"failedDocumentsCount,omitempty"`
	SizeBytes             string `json:"sizeBytes,omitempty"`
}

type LibraryState string

const (
	LibraryUninitialized LibraryState = "UNINITIALIZED"
	LibraryInitializing  LibraryState = "INITIALIZING"
	LibraryReady         LibraryState = "READY"
	LibraryError         LibraryState = "ERROR"
)
