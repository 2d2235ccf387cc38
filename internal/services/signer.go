package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"entrypass/models"
)

// Signer produces and verifies the keyed integrity tag embedded in QR
// payloads. The key is process-wide, loaded once at startup.
type Signer struct {
	key []byte
}

func NewSigner(key string) *Signer {
	return &Signer{key: []byte(key)}
}

// Sign computes an HMAC-SHA256 over the ticket's immutable fields.
func (s *Signer) Sign(t *models.Ticket) string {
	return hmac256([]byte(s.canonical(t.ID, t.HolderName, string(t.PassClass), t.IssuedAt.Unix())), s.key)
}

// Verify recomputes the signature from the stored ticket and compares it
// to the one presented in the payload, in constant time.
func (s *Signer) Verify(t *models.Ticket, signature string) bool {
	expected := s.Sign(t)
	return hmac.Equal([]byte(signature), []byte(expected))
}

func (s *Signer) canonical(id, holderName, passClass string, issuedAtUnix int64) string {
	return fmt.Sprintf("%s|%s|%s|%d", id, holderName, passClass, issuedAtUnix)
}

func hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}
