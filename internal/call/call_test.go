package call

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
)

func TestCallerTexts(t *testing.T) {
	turns := []Turn{
		NewTurn(RolePersona, "Hello?"),
		NewTurn(RoleCaller, "this is the bank"),
		NewTurn(RoleNotice, "Connection error."),
		NewTurn(RoleCaller, "hello, are you there"),
	}
	texts := CallerTexts(turns)
	if len(texts) != 2 || texts[0] != "this is the bank" || texts[1] != "hello, are you there" {
		t.Fatalf("got %v", texts)
	}
	if CallerCount(turns) != 2 {
		t.Fatalf("count = %d", CallerCount(turns))
	}
}

func TestSessionJSONKeys(t *testing.T) {
	record := intel.NewRecord()
	record.Add(intel.Names, "Rajesh")
	sess := Session{
		ID:        "s1",
		PersonaID: "grandma",
		StartedAt: time.Now(),
		EndedAt:   time.Now(),
		Duration:  time.Minute,
		ScamType:  "Unknown",
		Intel:     record,
		Turns:     []Turn{NewTurn(RoleCaller, "hi")},
	}
	b, err := json.Marshal(sess)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "persona", "startTime", "endTime", "duration", "scamType", "extractedInfo", "transcript"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing json key %q", key)
		}
	}
}
