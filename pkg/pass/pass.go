// Package pass renders entry passes as QR codes.
package pass

import (
	"fmt"

	"github.com/clubhive/clubhive/pkg/credential"
	"github.com/skip2/go-qrcode"
)

// Size is the edge length of a rendered pass in pixels.
const Size = 256

// Token returns the credential text printed on the pass of a registration.
func Token(eventID, userID, registrationID string) string {
	return credential.Encode(eventID, userID, registrationID)
}

// PNG renders the credential text as a QR code.
func PNG(token string) ([]byte, error) {
	if token == "" {
		return nil, fmt.Errorf("empty pass token")
	}
	png, err := qrcode.Encode(token, qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("render pass: %w", err)
	}
	return png, nil
}
