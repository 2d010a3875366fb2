package utils

import "github.com/google/uuid"

// GetToken returns a random token for account activation links.
func GetToken() string {
	return uuid.NewString()
}

