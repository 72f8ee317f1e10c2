// Package token encodes decision correlation tokens into component custom
// IDs and parses them back on click. Tokens are the only representation a
// join request ever has.
package token

import (
	"errors"
	"fmt"
	"strings"
)

// Fixed custom IDs for the ticket menu buttons.
const (
	MenuCreateTeam = "create_team"
	MenuJoinTeam   = "join_team"
	MenuIgnore     = "ignore"
)

const (
	delimiter   = ":"
	scopeCreate = "team"
	scopeJoin   = "join"
)

type Verb string

const (
	VerbApprove Verb = "approve"
	VerbReject  Verb = "reject"
)

var (
	ErrReservedDelimiter = errors.New("team name contains reserved character")
	ErrMalformedToken    = errors.New("malformed decision token")
)

// Decision identifies one approve/reject control. Requester is set only
// for join decisions.
type Decision struct {
	Verb      Verb
	Join      bool
	Team      string
	Requester string
}

// ValidateTeamName rejects names that would make a token ambiguous.
func ValidateTeamName(name string) error {
	if strings.Contains(name, delimiter) {
		return ErrReservedDelimiter
	}
	return nil
}

func (d Decision) Encode() (string, error) {
	if d.Verb != VerbApprove && d.Verb != VerbReject {
		return "", ErrMalformedToken
	}
	if err := ValidateTeamName(d.Team); err != nil {
		return "", err
	}
	if d.Join {
		if d.Requester == "" {
			return "", ErrMalformedToken
		}
		return strings.Join([]string{string(d.Verb), scopeJoin, d.Team, d.Requester}, delimiter), nil
	}
	return strings.Join([]string{string(d.Verb), scopeCreate, d.Team}, delimiter), nil
}

// Parse decodes a decision token. The bool result is false for custom IDs
// that are not decision tokens at all (e.g. the menu buttons).
func Parse(customID string) (Decision, bool, error) {
	parts := strings.Split(customID, delimiter)
	if len(parts) < 2 {
		return Decision{}, false, nil
	}

	verb := Verb(parts[0])
	if verb != VerbApprove && verb != VerbReject {
		return Decision{}, false, nil
	}

	switch parts[1] {
	case scopeCreate:
		if len(parts) != 3 || parts[2] == "" {
			return Decision{}, true, fmt.Errorf("%w: %q", ErrMalformedToken, customID)
		}
		return Decision{Verb: verb, Team: parts[2]}, true, nil
	case scopeJoin:
		if len(parts) != 4 || parts[2] == "" || parts[3] == "" {
			return Decision{}, true, fmt.Errorf("%w: %q", ErrMalformedToken, customID)
		}
		return Decision{Verb: verb, Join: true, Team: parts[2], Requester: parts[3]}, true, nil
	default:
		return Decision{}, true, fmt.Errorf("%w: %q", ErrMalformedToken, customID)
	}
}
