package domain

// TokenPair is what the login and refresh endpoints return: the short-lived
// signed access token and the longer-lived address-bound refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"` // always "Bearer"
	ExpiresIn    int64  `json:"expiresIn"` // seconds until access token expiry
}
