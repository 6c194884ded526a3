package dto

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse carries the tokens together with the resolved session state.
// Profile is null when it could not be resolved.
type LoginResponse struct {
	TokenResponse
	Profile *ProfileResponse `json:"profile"`
	IsAdmin bool             `json:"is_admin"`
}
