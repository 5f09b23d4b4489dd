// teleop-probe streams synthetic joystick input at a running daemon and
// prints what comes back. It stands in for the operator UI during
// latency checks and tuning sessions: point it at the rover, pick a
// stick pattern, watch the telemetry respond.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roverworks/go-rover5/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "daemon WebSocket URL")
	rate := flag.Int("rate", 20, "control frames per second")
	duration := flag.Duration("duration", 10*time.Second, "how long to stream")
	magnitude := flag.Float64("magnitude", 0.6, "stick deflection, 0..1")
	pattern := flag.String("pattern", "circle", "stick pattern: circle, forward or spin")
	flag.Parse()
	if *rate < 1 {
		*rate = 1
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	ws, _, err := dialer.Dial(*addr, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer ws.Close()

	go printInbound(ws)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("streaming %q at %d Hz for %s\n", *pattern, *rate, *duration)
	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()
	start := time.Now()

stream:
	for {
		select {
		case <-sigCh:
			fmt.Println("\ninterrupted")
			break stream
		case <-ticker.C:
			elapsed := time.Since(start)
			if elapsed >= *duration {
				break stream
			}
			angle := stickAngle(*pattern, elapsed, *duration)
			if err := sendControl(ws, angle, *magnitude); err != nil {
				fmt.Fprintf(os.Stderr, "send: %v\n", err)
				break stream
			}
		}
	}

	// Center the stick before leaving so the rover stops immediately
	// instead of waiting out its own silence timeout.
	if err := sendControl(ws, 0, 0); err != nil {
		fmt.Fprintf(os.Stderr, "send stop: %v\n", err)
	}
	time.Sleep(200 * time.Millisecond)
}

// stickAngle picks the synthetic stick direction for the moment.
// "forward" holds straight ahead, "spin" holds due right which maps to
// rotation in place, "circle" sweeps a full revolution over the run.
func stickAngle(pattern string, elapsed, total time.Duration) float64 {
	switch pattern {
	case "forward":
		return math.Pi / 2
	case "spin":
		return 0
	default:
		return 2 * math.Pi * float64(elapsed) / float64(total)
	}
}

func sendControl(ws *websocket.Conn, angle, magnitude float64) error {
	msg, err := protocol.NewControlMessage(angle, magnitude, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return ws.WriteMessage(websocket.TextMessage, data)
}

// printInbound summarizes telemetry frames and dumps everything else
// verbatim.
func printInbound(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != protocol.TypeTelemetry {
			fmt.Printf("%s: %s\n", msg.Type, data)
			continue
		}
		td, err := msg.GetTelemetryData()
		if err != nil {
			continue
		}
		fmt.Printf("telemetry: pwm %4d/%-4d rpm %6.1f/%-6.1f dist %.2f/%.2f m battery %.1fV\n",
			td.LeftPWM, td.RightPWM, td.LeftRPM, td.RightRPM,
			td.LeftDistance, td.RightDistance, td.BatteryVoltage)
	}
}
