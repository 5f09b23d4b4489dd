// Package ambient caches temperature and humidity readings. Environment
// sensors are slow and must not be read from the telemetry path, so a
// Sampler polls the sensor on its own interval and everything else reads
// the cache.
package ambient

import (
	"errors"
	"sync"
	"time"

	"github.com/roverworks/go-rover5/internal/log"
)

// DefaultInterval is how often the sensor is polled. DHT-class sensors
// self-heat when read faster than every couple of seconds.
const DefaultInterval = 2 * time.Second

// ErrNoSensor is returned by Disabled on every read.
var ErrNoSensor = errors.New("no ambient sensor fitted")

// Reading is the cached sensor state. Valid is false until the first
// successful read and after any failed one; Temperature and Humidity
// then hold the last good values.
type Reading struct {
	Temperature float64
	Humidity    float64
	Valid       bool
	Timestamp   time.Time
}

// Reader produces one temperature/humidity observation.
type Reader interface {
	Read() (temperature, humidity float64, err error)
}

// Disabled is the Reader for rovers without an environment sensor. Every
// read fails, which keeps the cached reading invalid.
type Disabled struct{}

func (Disabled) Read() (float64, float64, error) {
	return 0, 0, ErrNoSensor
}

// Sampler polls a Reader on a fixed interval and caches the latest
// observation. Latest may be called from any goroutine.
type Sampler struct {
	reader   Reader
	interval time.Duration

	mu     sync.RWMutex
	latest Reading

	wasValid bool
	stop     chan struct{}
}

// NewSampler creates a sampler. The cache starts invalid.
func NewSampler(reader Reader, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		reader:   reader,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Run polls the sensor until Stop is called. The first read happens
// immediately, not one interval in. Blocks; run it in a goroutine.
func (s *Sampler) Run() {
	s.sample()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

// Stop halts the sampler.
func (s *Sampler) Stop() {
	close(s.stop)
}

// Latest returns the cached reading.
func (s *Sampler) Latest() Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// sample performs one read and updates the cache. Logs only on the
// valid/invalid transitions so a missing sensor does not spam.
func (s *Sampler) sample() {
	temperature, humidity, err := s.reader.Read()

	s.mu.Lock()
	if err != nil {
		s.latest.Valid = false
		wasValid := s.wasValid
		s.wasValid = false
		s.mu.Unlock()
		if wasValid {
			log.Warn("ambient sensor read failed", "error", err)
		}
		return
	}

	s.latest = Reading{
		Temperature: temperature,
		Humidity:    humidity,
		Valid:       true,
		Timestamp:   time.Now(),
	}
	wasValid := s.wasValid
	s.wasValid = true
	s.mu.Unlock()

	if !wasValid {
		log.Info("ambient sensor reading", "temperature_c", temperature, "humidity_pct", humidity)
	}
}
