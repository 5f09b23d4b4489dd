package chassis

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/roverworks/go-rover5/internal/httpc"
)

// HTTPBridge drives a remote motor controller over its HTTP API. It is
// used when the daemon runs off-vehicle and only the rover's onboard
// motor endpoint is reachable.
type HTTPBridge struct {
	BaseURL string

	client *http.Client
}

// NewHTTPBridge creates a bridge for the vehicle at baseURL, for example
// "http://192.168.4.1". The client timeout is short: at 50 Hz a stuck
// request must not stall the control loop for long.
func NewHTTPBridge(baseURL string) *HTTPBridge {
	return &HTTPBridge{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpc.NewClient(2 * time.Second),
	}
}

var _ Output = (*HTTPBridge)(nil)

// SetDuty posts a single channel write to the vehicle.
func (b *HTTPBridge) SetDuty(ch Channel, duty uint8) error {
	payload, err := json.Marshal(map[string]interface{}{
		"channel": ch.String(),
		"duty":    duty,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal duty payload: %w", err)
	}

	resp, err := b.client.Post(
		b.BaseURL+"/api/motor/duty",
		"application/json",
		strings.NewReader(string(payload)),
	)
	if err != nil {
		return fmt.Errorf("motor duty request failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("motor duty request returned %s", resp.Status)
	}
	return nil
}

// counter fetches one wheel's free-running count from the vehicle.
func (b *HTTPBridge) counter(side string) (int16, error) {
	resp, err := b.client.Get(b.BaseURL + "/api/encoder/" + side)
	if err != nil {
		return 0, fmt.Errorf("encoder request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("encoder request returned %s", resp.Status)
	}

	var body struct {
		Count int16 `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode encoder response: %w", err)
	}
	return body.Count, nil
}

// BridgeCounter reads one wheel's counter over the bridge API. It
// satisfies the odometry CountReader contract.
type BridgeCounter struct {
	bridge *HTTPBridge
	side   string
}

func (c BridgeCounter) Count() (int16, error) {
	return c.bridge.counter(c.side)
}

// LeftCounter returns the left wheel's counter view.
func (b *HTTPBridge) LeftCounter() BridgeCounter {
	return BridgeCounter{bridge: b, side: "left"}
}

// RightCounter returns the right wheel's counter view.
func (b *HTTPBridge) RightCounter() BridgeCounter {
	return BridgeCounter{bridge: b, side: "right"}
}
