package utils

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// TicketCodePrefix marks codes minted by this issuer. Legacy paper codes
// used a "DT-" prefix and carry no signature; they never validate.
const TicketCodePrefix = "EP"

// ticketRandomBytes is the entropy of the random segment: 12 bytes is 96
// bits, well past the point where collisions matter for a single event.
const ticketRandomBytes = 12

// GenerateTicketCode returns a ticket identifier of the form
// EP-<base36 millisecond timestamp>-<16 chars base64url>. The timestamp
// prefix keeps codes roughly sortable for debugging; uniqueness comes from
// the random segment alone.
func GenerateTicketCode() (string, error) {
	byt := make([]byte, ticketRandomBytes)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	random := base64.RawURLEncoding.EncodeToString(byt)

	return TicketCodePrefix + "-" + ts + "-" + random, nil
}

// GenerateOperatorToken returns a random token suitable for gate operator
// credentials. The caller stores only its bcrypt hash.
func GenerateOperatorToken() (string, error) {
	byt := make([]byte, 24)

	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(byt), nil
}
