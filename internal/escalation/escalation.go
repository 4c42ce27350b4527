// Package escalation maps conversation length to the persona's questioning
// aggressiveness. The ladder is a pure function of the caller-turn count and
// never regresses over the life of a session.
package escalation

// Level is the persona's current questioning tier.
type Level int

const (
	Cooperative Level = iota
	Curious
	Probing
	Bold
)

func (l Level) String() string {
	switch l {
	case Cooperative:
		return "cooperative"
	case Curious:
		return "curious"
	case Probing:
		return "probing"
	case Bold:
		return "bold"
	}
	return "cooperative"
}

// MarshalJSON emits the level name rather than its ordinal.
func (l Level) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// ForCallerTurns returns the level for a given number of caller turns.
// 0-4 cooperative, 5-10 curious, 11-18 probing, 19+ bold.
func ForCallerTurns(n int) Level {
	switch {
	case n <= 4:
		return Cooperative
	case n <= 10:
		return Curious
	case n <= 18:
		return Probing
	}
	return Bold
}

var instructions = map[Level]string{
	Cooperative: `
BEHAVIOR NOW: Be cooperative and follow their instructions. Build trust. Ask basic questions naturally like "Who am I speaking with?" or "Where are you calling from?"`,

	Curious: `
BEHAVIOR NOW: You're getting comfortable. Ask more questions naturally:
- "Can you give me a number to call you back on, in case we get disconnected?"
- "What department are you from again?"
- "What was your name, dear?"
- "Is there a case number or reference I should write down?"`,

	Probing: `
BEHAVIOR NOW: You've been cooperative long enough. Start asking for specifics:
- "What's your employee ID? I want to make sure I'm talking to the right person."
- "Can you give me your badge number, for my records?"
- "Which branch or office are you calling from?"
- "What's the exact website I should go to?"
Ask these ONE AT A TIME, mixed naturally between cooperative responses.`,

	Bold: `
BEHAVIOR NOW: You've built rapport. Push for maximum intel:
- "Let me speak to your supervisor, I want to verify this is real."
- "What's your supervisor's name?"
- "What's your company's registration number?"
- "Can you give me your direct extension number?"
- "What address is your office at?"
Stay in character but be persistent about getting details. Sound trusting but thorough.`,
}

// Instructions returns the behavioral block appended to the persona's base
// prompt at this level.
func (l Level) Instructions() string {
	return instructions[l]
}
