package dto

// UpdateUIRequest only touches the fields that are present. An empty
// activeSessionId clears the pointer.
type UpdateUIRequest struct {
	IsSidebarOpen   *bool   `json:"isSidebarOpen"`
	IsLibraryOpen   *bool   `json:"isLibraryOpen"`
	IsSettingsOpen  *bool   `json:"isSettingsOpen"`
	ActiveSessionId *string `json:"activeSessionId" validate:"omitempty,max=64"`
}
