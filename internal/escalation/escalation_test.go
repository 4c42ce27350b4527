package escalation

import "testing"

func TestForCallerTurns(t *testing.T) {
	cases := []struct {
		turns int
		want  Level
	}{
		{0, Cooperative},
		{1, Cooperative},
		{4, Cooperative},
		{5, Curious},
		{10, Curious},
		{11, Probing},
		{18, Probing},
		{19, Bold},
		{50, Bold},
	}
	for _, tc := range cases {
		if got := ForCallerTurns(tc.turns); got != tc.want {
			t.Errorf("ForCallerTurns(%d) = %s, want %s", tc.turns, got, tc.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if Cooperative.String() != "cooperative" || Bold.String() != "bold" {
		t.Fatalf("unexpected level names: %s / %s", Cooperative, Bold)
	}
	if Level(99).String() != "cooperative" {
		t.Fatalf("out-of-range level should default to cooperative")
	}
}

func TestLevelMarshalJSON(t *testing.T) {
	b, err := Probing.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"probing"` {
		t.Fatalf("got %s", b)
	}
}

func TestInstructionsNonEmpty(t *testing.T) {
	for _, l := range []Level{Cooperative, Curious, Probing, Bold} {
		if l.Instructions() == "" {
			t.Errorf("level %s has no instructions", l)
		}
	}
}
