package api

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

// Preferences are the per-user settings consulted by expense and summary calls.
type Preferences struct {
	DefaultSplitMode string `json:"defaultSplitMode,omitempty"`
	SelectedPeriod   string `json:"selectedPeriod,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User        *User        `json:"user"`
	Preferences *Preferences `json:"preferences"`
}

type GetPreferencesRequest struct{}

type GetPreferencesResponse struct {
	Preferences *Preferences `json:"preferences"`
}

type UpdatePreferencesRequest struct {
	Preferences *Preferences `json:"preferences"`
}

type UpdatePreferencesResponse struct {
	Preferences *Preferences `json:"preferences"`
}
