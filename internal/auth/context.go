package auth

import (
	"strings"

	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
)

// Claims contains the verified token details we care about.
type Claims struct {
	Subject string
	Email   string
	Name    string
}

// Identity maps claims onto the credit identity.
func (c *Claims) Identity() credit.Identity {
	return credit.Identity{UserID: c.Subject, Email: c.Email, FullName: c.Name}
}

// ExtractBearerToken returns the token of an "Authorization: Bearer" header.
func ExtractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
