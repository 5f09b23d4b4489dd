package rover

import (
	"context"
	"fmt"
	"time"

	"github.com/roverworks/go-rover5/internal/log"
	"github.com/roverworks/go-rover5/pkg/drive"
)

// Step is one stage of a scripted drive sequence.
type Step struct {
	Name     string
	Target   drive.MotorCommand
	Duration time.Duration

	// Alpha is the per-tick blend toward Target in (0,1]. 1, or zero
	// value, jumps straight to the target; smaller values ramp in
	// exponentially.
	Alpha float64
}

// Sequence is an ordered list of timed drive steps, played open-loop
// against an actuator. Used by the drive-test tool and for scripted
// demos; normal teleoperation goes through the control loop instead.
type Sequence struct {
	Name  string
	Steps []Step
}

// Play runs the sequence to completion, ticking the actuator at the
// given rate. The chassis is stopped on every exit path, including
// context cancellation. Blocks for the sum of the step durations.
func (s *Sequence) Play(ctx context.Context, act Actuator, rate time.Duration) error {
	if rate <= 0 {
		rate = DefaultControlRate
	}
	err := s.play(ctx, act, rate)
	if stopErr := act.Stop(); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

func (s *Sequence) play(ctx context.Context, act Actuator, rate time.Duration) error {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	var current drive.MotorCommand
	for _, step := range s.Steps {
		log.Info("sequence step",
			"sequence", s.Name,
			"step", step.Name,
			"left", step.Target.Left,
			"right", step.Target.Right,
			"duration", step.Duration)

		alpha := step.Alpha
		if alpha <= 0 || alpha > 1 {
			alpha = 1
		}

		end := time.Now().Add(step.Duration)
		for time.Now().Before(end) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				current = drive.Smooth(current, step.Target, alpha)
				if err := act.Drive(current); err != nil {
					return fmt.Errorf("step %s: %w", step.Name, err)
				}
			}
		}
	}
	return nil
}

// MotorTest returns the factory chassis check: both sides at half duty
// forward, then backward, then spin right, then spin left, one second
// per stage, stop at the end.
func MotorTest() *Sequence {
	const half = 128
	return &Sequence{
		Name: "motor-test",
		Steps: []Step{
			{Name: "forward", Target: drive.MotorCommand{Left: half, Right: half}, Duration: time.Second},
			{Name: "backward", Target: drive.MotorCommand{Left: -half, Right: -half}, Duration: time.Second},
			{Name: "rotate-right", Target: drive.MotorCommand{Left: half, Right: -half}, Duration: time.Second},
			{Name: "rotate-left", Target: drive.MotorCommand{Left: -half, Right: half}, Duration: time.Second},
		},
	}
}
