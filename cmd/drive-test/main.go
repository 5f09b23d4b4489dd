// drive-test runs the scripted chassis check: forward, backward and both
// rotations at half duty, one second each. Against a real motor bridge
// it verifies wiring and motor polarity; against the simulator it shows
// the expected encoder response.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roverworks/go-rover5/internal/log"
	"github.com/roverworks/go-rover5/pkg/chassis"
	"github.com/roverworks/go-rover5/pkg/rover"
	"github.com/roverworks/go-rover5/pkg/sim"
)

func main() {
	bridgeURL := flag.String("bridge", "", "motor bridge base URL (empty runs the simulator)")
	ramp := flag.Float64("ramp", 0, "per-tick blend toward each step target, 0..1 (0 switches instantly)")
	flag.Parse()

	log.Init("info")

	var (
		output chassis.Output
		virt   *sim.Chassis
	)
	if *bridgeURL == "" {
		virt = sim.NewChassis()
		output = virt
		fmt.Println("no bridge given, driving the simulator")
	} else {
		output = chassis.NewHTTPBridge(*bridgeURL)
		fmt.Printf("driving motor bridge at %s\n", *bridgeURL)
	}
	governor := chassis.NewGovernor(output)

	seq := rover.MotorTest()
	if *ramp > 0 {
		for i := range seq.Steps {
			seq.Steps[i].Alpha = *ramp
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\ninterrupted, stopping motors")
		cancel()
	}()

	fmt.Printf("running %s (%d steps)\n", seq.Name, len(seq.Steps))
	start := time.Now()
	if err := seq.Play(ctx, governor, rover.DefaultControlRate); err != nil {
		log.Error("sequence failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("completed in %s\n", time.Since(start).Round(time.Millisecond))

	if virt != nil {
		left, _ := virt.LeftEncoder().Count()
		right, _ := virt.RightEncoder().Count()
		fmt.Printf("simulated encoder counts: left %d right %d\n", left, right)
	}
}
