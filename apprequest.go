package sialo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// DefaultAppID is the application id sialo registers under when no
// metadata file is supplied.
const DefaultAppID = "c0000000000000000000000000000000000000000000000000000000000000de"

// RegistrationRequest is the application metadata sent to the indexer
// when requesting a connection. It is passed by value and never mutated
// by the handshake.
type RegistrationRequest struct {
	AppID       ObjectID `json:"appID"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	ServiceURL  string   `json:"serviceURL" validate:"required,url"`
	LogoURL     *string  `json:"logoURL,omitempty" validate:"omitempty,url"`
	CallbackURL *string  `json:"callbackURL,omitempty" validate:"omitempty,url"`
}

// DefaultRegistrationRequest returns sialo's own application metadata.
func DefaultRegistrationRequest() RegistrationRequest {
	id, err := ParseObjectID(DefaultAppID)
	if err != nil {
		panic(err)
	}
	return RegistrationRequest{
		AppID:       id,
		Name:        "sialo",
		Description: "A CLI for uploading, downloading, and managing files on Sia",
		ServiceURL:  "https://example.com",
	}
}

// LoadRegistrationRequest reads application metadata from a JSON file.
// An empty path yields DefaultRegistrationRequest.
func LoadRegistrationRequest(path string) (RegistrationRequest, error) {
	if path == "" {
		return DefaultRegistrationRequest(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path)) //#nosec G304 -- path is user-provided metadata file
	if err != nil {
		return RegistrationRequest{}, fmt.Errorf("read app metadata: %w", err)
	}

	var req RegistrationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return RegistrationRequest{}, fmt.Errorf("parse app metadata: %w", err)
	}

	if err := req.Validate(); err != nil {
		return RegistrationRequest{}, err
	}
	return req, nil
}

// Validate checks the required fields and URL formats.
func (r RegistrationRequest) Validate() error {
	if r.AppID.IsZero() {
		return fmt.Errorf("validate app metadata: %w: app id is required", ErrInvalidInput)
	}
	if err := validator.New().Struct(r); err != nil {
		return fmt.Errorf("validate app metadata: %w: %v", ErrInvalidInput, err)
	}
	return nil
}
