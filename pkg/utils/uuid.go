package utils

import "github.com/google/uuid"

// NewUUID returns a random v4 UUID string
func NewUUID() string {
	return uuid.New().String()
}

// IsUUID checks if the string is a valid UUID
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
