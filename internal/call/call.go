// Package call holds the shared conversation domain types: turns, roles and
// the frozen record of a completed honeypot session.
package call

import (
	"time"

	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
)

// Role identifies who produced a turn.
type Role string

const (
	// RoleCaller is the scammer on the other end of the line.
	RoleCaller Role = "caller"
	// RolePersona is the synthetic identity we present to the caller.
	RolePersona Role = "persona"
	// RoleNotice is an in-band system notice (e.g. a dropped dialogue call).
	RoleNotice Role = "system-notice"
)

// Turn is one exchange unit. Turns are append-only and never mutated after
// creation; slice order is the canonical conversation order.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTurn stamps a turn with the current time.
func NewTurn(role Role, text string) Turn {
	return Turn{Role: role, Text: text, CreatedAt: time.Now()}
}

// CallerTexts returns the text of every caller turn, in order.
func CallerTexts(turns []Turn) []string {
	var out []string
	for _, t := range turns {
		if t.Role == RoleCaller {
			out = append(out, t.Text)
		}
	}
	return out
}

// CallerCount counts the caller turns so far.
func CallerCount(turns []Turn) int {
	n := 0
	for _, t := range turns {
		if t.Role == RoleCaller {
			n++
		}
	}
	return n
}

// Session is the immutable archival record of a finished call.
type Session struct {
	ID        string        `json:"id"`
	PersonaID string        `json:"persona"`
	StartedAt time.Time     `json:"startTime"`
	EndedAt   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	ScamType  string        `json:"scamType"`
	Intel     intel.Record  `json:"extractedInfo"`
	Turns     []Turn        `json:"transcript"`
}
