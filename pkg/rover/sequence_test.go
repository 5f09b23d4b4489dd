package rover

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/roverworks/go-rover5/pkg/drive"
)

func TestSequencePlaysStepsInOrder(t *testing.T) {
	act := &mockActuator{}
	seq := &Sequence{
		Name: "check",
		Steps: []Step{
			{Name: "ahead", Target: drive.MotorCommand{Left: 100, Right: 100}, Duration: 30 * time.Millisecond},
			{Name: "spin", Target: drive.MotorCommand{Left: 80, Right: -80}, Duration: 30 * time.Millisecond},
		},
	}

	if err := seq.Play(context.Background(), act, 5*time.Millisecond); err != nil {
		t.Fatalf("Play error: %v", err)
	}

	cmds := act.allCommands()
	if len(cmds) < 2 {
		t.Fatalf("only %d commands issued", len(cmds))
	}
	if want := (drive.MotorCommand{Left: 100, Right: 100}); cmds[0] != want {
		t.Errorf("first command: got %+v, want %+v", cmds[0], want)
	}
	if want := (drive.MotorCommand{Left: 80, Right: -80}); cmds[len(cmds)-1] != want {
		t.Errorf("last command: got %+v, want %+v", cmds[len(cmds)-1], want)
	}
	if got := act.stopCount(); got != 1 {
		t.Errorf("stops: got %d, want 1", got)
	}
}

func TestSequenceRampApproachesTarget(t *testing.T) {
	act := &mockActuator{}
	seq := &Sequence{
		Name: "soft",
		Steps: []Step{
			{Name: "ramp", Target: drive.MotorCommand{Left: 200, Right: 200}, Duration: 40 * time.Millisecond, Alpha: 0.5},
		},
	}

	if err := seq.Play(context.Background(), act, 5*time.Millisecond); err != nil {
		t.Fatalf("Play error: %v", err)
	}

	cmds := act.allCommands()
	if len(cmds) < 3 {
		t.Fatalf("only %d commands issued", len(cmds))
	}
	if cmds[0].Left != 100 {
		t.Errorf("first ramp step: got %d, want 100 (halfway to target)", cmds[0].Left)
	}
	for i := 1; i < len(cmds); i++ {
		if cmds[i].Left < cmds[i-1].Left {
			t.Errorf("ramp went backward at step %d: %d -> %d", i, cmds[i-1].Left, cmds[i].Left)
		}
		if cmds[i].Left > 200 {
			t.Errorf("ramp overshot target at step %d: %d", i, cmds[i].Left)
		}
	}
}

func TestSequenceCancellationStopsChassis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	act := &mockActuator{}
	seq := &Sequence{
		Name: "long",
		Steps: []Step{
			{Name: "cruise", Target: drive.MotorCommand{Left: 120, Right: 120}, Duration: 10 * time.Second},
		},
	}

	done := make(chan error, 1)
	go func() {
		done <- seq.Play(ctx, act, 5*time.Millisecond)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Play did not return after cancellation")
	}

	if act.stopCount() == 0 {
		t.Error("chassis not stopped after cancellation")
	}
}

func TestSequenceActuatorFailureAborts(t *testing.T) {
	act := &mockActuator{}
	act.failDrive(errors.New("phase fault"))
	seq := &Sequence{
		Name: "check",
		Steps: []Step{
			{Name: "forward", Target: drive.MotorCommand{Left: 50, Right: 50}, Duration: 50 * time.Millisecond},
		},
	}

	err := seq.Play(context.Background(), act, 5*time.Millisecond)
	if err == nil {
		t.Fatal("Play should surface the actuator failure")
	}
	if !strings.Contains(err.Error(), "forward") {
		t.Errorf("error %q does not name the failing step", err)
	}
	if got := act.stopCount(); got != 1 {
		t.Errorf("stops after failure: got %d, want 1", got)
	}
}

func TestMotorTestShape(t *testing.T) {
	seq := MotorTest()

	wantTargets := []drive.MotorCommand{
		{Left: 128, Right: 128},
		{Left: -128, Right: -128},
		{Left: 128, Right: -128},
		{Left: -128, Right: 128},
	}
	if len(seq.Steps) != len(wantTargets) {
		t.Fatalf("steps: got %d, want %d", len(seq.Steps), len(wantTargets))
	}
	for i, step := range seq.Steps {
		if step.Target != wantTargets[i] {
			t.Errorf("step %d (%s): got %+v, want %+v", i, step.Name, step.Target, wantTargets[i])
		}
		if step.Duration != time.Second {
			t.Errorf("step %d (%s): duration %v, want 1s", i, step.Name, step.Duration)
		}
	}
}
