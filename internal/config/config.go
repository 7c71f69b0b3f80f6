// Package config loads operator credentials for the remote account system.
// Credentials come only from the environment, never from flags, so they
// stay out of shell history and process listings.
package config

import (
	"errors"
	"os"
	"strings"
)

const (
	// EnvEmail and EnvPassword name the environment variables holding the
	// remote system login.
	EnvEmail    = "CHILDPATHS_EMAIL"
	EnvPassword = "CHILDPATHS_PASSWORD"
)

// Credentials is the remote system login.
type Credentials struct {
	Email    string
	Password string
}

// LoadCredentials reads credentials from the environment.
func LoadCredentials() (Credentials, error) {
	creds := Credentials{
		Email:    strings.TrimSpace(os.Getenv(EnvEmail)),
		Password: os.Getenv(EnvPassword),
	}

	var missing []string
	if creds.Email == "" {
		missing = append(missing, EnvEmail)
	}
	if creds.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if len(missing) > 0 {
		return Credentials{}, errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	return creds, nil
}
