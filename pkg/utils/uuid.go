package utils

import "github.com/google/uuid"

// ShortID is the first 8 characters of a fresh UUID, used for request IDs.
func ShortID() string {
	return uuid.New().String()[:8]
}
