// Package credential encodes and decodes the text carried by an entry pass.
//
// A pass reads CLUBHIVE-<event>-<user>-<registration>. Inside an identifier
// '%' is written as %25 and '-' as %2D, so a token always has exactly four
// fields and identifiers without those characters appear verbatim.
package credential

import (
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	Namespace = "CLUBHIVE"
	sep       = "-"
)

// ErrRejected is returned for any text that is not a well-formed pass.
var ErrRejected = errors.New("credential: not a ClubHive pass")

// Token is a decoded pass.
type Token struct {
	EventID        string `json:"event_id"`
	UserID         string `json:"user_id"`
	RegistrationID string `json:"registration_id"`
}

var (
	escaper   = strings.NewReplacer("%", "%25", "-", "%2D")
	uuidGroup = []int{8, 4, 4, 4, 12}
)

// Encode renders the pass text for a registration.
func Encode(eventID, userID, registrationID string) string {
	return Namespace + sep + escaper.Replace(eventID) + sep + escaper.Replace(userID) + sep + escaper.Replace(registrationID)
}

func (t Token) String() string {
	return Encode(t.EventID, t.UserID, t.RegistrationID)
}

// Decode parses scanned text. It never guesses: text that is not exactly a
// pass in the escaped form, or a legacy pass of three raw UUIDs, is rejected.
func Decode(text string) (Token, error) {
	fields := strings.Split(strings.TrimSpace(text), sep)
	if len(fields) < 4 || fields[0] != Namespace {
		return Token{}, ErrRejected
	}
	fields = fields[1:]

	switch len(fields) {
	case 3:
		var ids [3]string
		for i, f := range fields {
			id, err := url.PathUnescape(f)
			if err != nil || id == "" {
				return Token{}, ErrRejected
			}
			ids[i] = id
		}
		return Token{EventID: ids[0], UserID: ids[1], RegistrationID: ids[2]}, nil
	case 3 * len(uuidGroup):
		return decodeLegacy(fields)
	}
	return Token{}, ErrRejected
}

// decodeLegacy accepts passes printed before identifiers were escaped, where
// each of the three identifiers is a raw hyphenated UUID.
func decodeLegacy(fields []string) (Token, error) {
	var ids [3]string
	n := len(uuidGroup)
	for i := range ids {
		group := fields[i*n : (i+1)*n]
		for j, f := range group {
			if len(f) != uuidGroup[j] {
				return Token{}, ErrRejected
			}
		}
		id, err := uuid.Parse(strings.Join(group, sep))
		if err != nil {
			return Token{}, ErrRejected
		}
		ids[i] = id.String()
	}
	return Token{EventID: ids[0], UserID: ids[1], RegistrationID: ids[2]}, nil
}
