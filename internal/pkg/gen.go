package pkg

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

const tokenBytes = 32

// GenerateGameID - generates a random UUIDv4 game identifier.
func GenerateGameID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate game id: %w", err)
	}

	return id.String(), nil
}

// GenerateTerminationSecret - generates the secret required to delete a game.
func GenerateTerminationSecret() (string, error) {
	secret, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate termination secret: %w", err)
	}

	return secret.String(), nil
}

// GenerateToken - generates a url-safe account token.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
