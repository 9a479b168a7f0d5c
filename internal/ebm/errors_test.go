package ebm

import (
	"errors"
	"strings"
	"testing"
)

func TestValueErrorUnwraps(t *testing.T) {
	err := invalidParam("c1", -7.3, "> 0")
	if !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("ValueError does not unwrap to the sentinel: %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"c1", "-7.3", "> 0"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestStepErrorUnwraps(t *testing.T) {
	err := &StepError{Step: 12, Time: 12.5, Wrapped: ErrUnstableTimestep}
	if !errors.Is(err, ErrUnstableTimestep) {
		t.Fatalf("StepError does not unwrap: %v", err)
	}
	if !strings.Contains(err.Error(), "step 12") {
		t.Errorf("message %q missing step context", err.Error())
	}
}
