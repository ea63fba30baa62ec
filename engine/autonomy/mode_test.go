package autonomy

import "testing"

func TestParse(t *testing.T) {
	// Given the three known modes
	for _, s := range []string{"observation", "semi-automatic", "full-automatic"} {
		// When parsed
		m, err := Parse(s)

		// Then the mode round-trips
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", s, err)
		}
		if m.String() != s {
			t.Errorf("Parse(%q).String() = %q", s, m)
		}
	}
}

func TestParse_Unknown(t *testing.T) {
	// When parsing an unknown mode
	_, err := Parse("autopilot")

	// Then parsing fails
	if err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestGate_Observation(t *testing.T) {
	// Given observation mode and a confirmed target
	confirmed := map[string]struct{}{"job-1": {}}

	// When gating any target
	d := Observation.Gate("job-1", confirmed)

	// Then no mutation is permitted, even for confirmed targets
	if d != Observe {
		t.Errorf("expected Observe, got %v", d)
	}
}

func TestGate_SemiAutomatic(t *testing.T) {
	// Given semi-automatic mode with one confirmed target
	confirmed := map[string]struct{}{"job-1": {}}

	// Then the confirmed target executes
	if d := SemiAutomatic.Gate("job-1", confirmed); d != Execute {
		t.Errorf("confirmed target: expected Execute, got %v", d)
	}

	// And unconfirmed targets are staged
	if d := SemiAutomatic.Gate("job-2", confirmed); d != Stage {
		t.Errorf("unconfirmed target: expected Stage, got %v", d)
	}

	// And a nil confirmed set stages everything
	if d := SemiAutomatic.Gate("job-1", nil); d != Stage {
		t.Errorf("nil confirmed set: expected Stage, got %v", d)
	}
}

func TestGate_FullAutomatic(t *testing.T) {
	// When gating without any confirmation
	d := FullAutomatic.Gate("job-9", nil)

	// Then mutation is permitted
	if d != Execute {
		t.Errorf("expected Execute, got %v", d)
	}
}
