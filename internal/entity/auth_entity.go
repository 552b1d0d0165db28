package entity

type UserRole string

const (
	UserRoleArchitect UserRole = "ARCHITECT"
	UserRoleAdmin     UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	return r == UserRoleArchitect || r == UserRoleAdmin
}

type AuthState struct {
	IsAuthenticated bool     `json:"isAuthenticated"`
	Role            UserRole `json:"role"`
	Error           string   `json:"error,omitempty"`
}

// PersistedAuth is the record stored under the auth key.
type PersistedAuth struct {
	Role      UserRole `json:"role"`
	Timestamp int64    `json:"timestamp"`
}

type UIState struct {
	IsSidebarOpen   bool    `json:"isSidebarOpen"`
	IsLibraryOpen   bool    `json:"isLibraryOpen"`
	IsSettingsOpen  bool    `json:"isSettingsOpen"`
	IsLoading       bool    `json:"isLoading"`
	ActiveSessionId *string `json:"activeSessionId"`
}
