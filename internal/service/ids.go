package service

import "github.com/google/uuid"

// UUIDGenerator abstracts node id generation for testability.
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator generates random v4 UUIDs.
type DefaultUUIDGenerator struct{}

func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}
