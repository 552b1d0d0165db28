package dto

import "design-companion-be/internal/entity"

type LibraryFileResponse struct {
	entity.LibraryFile
	SizeLabel     string `json:"sizeLabel,omitempty"`
	UploadedLabel string `json:"uploadedLabel,omitempty"`
}

type LibraryResponse struct {
	State            entity.LibraryState   `json:"state"`
	StoreName        string                `json:"storeName,omitempty"`
	Files            []LibraryFileResponse `json:"files"`
	TotalSizeLabel   string                `json:"totalSizeLabel"`
	IsUploading      bool                  `json:"isUploading"`
	UploadProgress   string                `json:"uploadProgress"`
	Error            string                `json:"error,omitempty"`
	SizeWarning      string                `json:"sizeWarning,omitempty"`
	MaxFileSizeLabel string                `json:"maxFileSizeLabel"`
}

type UploadDocumentResponse struct {
	File     LibraryFileResponse `json:"file"`
	Warnings []string            `json:"warnings,omitempty"`
}

type StoreResponse struct {
	entity.FileSearchStore
	SizeLabel string `json:"sizeLabel,omitempty"`
}
