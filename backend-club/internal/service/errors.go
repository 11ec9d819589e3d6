package service

import (
	"errors"
	"fmt"
)

// Service errors
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrBlogNotFound       = errors.New("blog not found")
	ErrMemberNotFound     = errors.New("team member not found")
	ErrAdminNotFound      = errors.New("admin user not found")
	ErrAdminAlreadyExists = errors.New("admin user already exists")
	ErrImageRequired      = errors.New("image is required")
	ErrInvalidImage       = errors.New("image must be a JPEG, PNG, GIF, WebP or AVIF file")
	ErrInvalidInput       = errors.New("invalid input")
)

func invalidInput(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
