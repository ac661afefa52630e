package helpers

import "github.com/golang-jwt/jwt/v5"

type CustomClaims struct {
	UserID   string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Guest    bool   `json:"isGuest,omitempty"`
	jwt.RegisteredClaims
}

// Helper methods for identity checks
func (c *CustomClaims) IsGuest() bool {
	return c.Guest || c.Identity() == ""
}

// Identity returns the user id carried by the token. Tokens issued by an external
// provider only carry it in the subject.
func (c *CustomClaims) Identity() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
