package nvidia

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/markusressel/fanhold/internal/util"
	"github.com/sony/gobreaker"
)

const (
	DefaultDisplay = ":0"

	nvidiaSettings = "nvidia-settings"
	nvidiaSmi      = "nvidia-smi"

	// consecutive failed driver calls before the breaker opens
	breakerFailures = 3
	// time the breaker stays open before a probe call is let through
	breakerTimeout = 30 * time.Second
)

// ErrDriverUnavailable is returned while the driver is considered unreachable.
var ErrDriverUnavailable = errors.New("nvidia driver unavailable")

// Runner executes a command and returns its trimmed stdout.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// FanSpeed is the current speed of a gpu fan as reported by the driver.
type FanSpeed struct {
	Rpm     int
	Percent int
}

// Client talks to the nvidia driver through nvidia-settings and nvidia-smi.
// All calls go through a circuit breaker, so an unreachable X server or a crashed
// driver does not cost a command timeout per fan and tick.
type Client struct {
	display string
	run     Runner
	breaker *gobreaker.CircuitBreaker
}

func NewClient(display string, run Runner) *Client {
	if len(display) <= 0 {
		display = DefaultDisplay
	}
	return &Client{
		display: display,
		run:     run,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "nvidia-" + display,
			Timeout: breakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerFailures
			},
		}),
	}
}

var (
	clientsMu sync.Mutex
	clients   = map[string]*Client{}
)

// ClientFor returns the shared client of the given X display.
func ClientFor(display string) *Client {
	if len(display) <= 0 {
		display = DefaultDisplay
	}
	clientsMu.Lock()
	defer clientsMu.Unlock()
	client, ok := clients[display]
	if !ok {
		client = NewClient(display, util.RunSystemCommand)
		clients[display] = client
	}
	return client
}

func (c *Client) Display() string {
	return c.display
}

// Available reports whether the breaker lets calls through.
func (c *Client) Available() bool {
	return c.breaker.State() != gobreaker.StateOpen
}

func (c *Client) execute(ctx context.Context, name string, args ...string) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.run(ctx, name, args...)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// GpuTemperature returns the core temperature of the given gpu in degrees.
func (c *Client) GpuTemperature(ctx context.Context, gpu int) (float64, error) {
	out, err := c.execute(ctx, nvidiaSmi,
		"--query-gpu=temperature.gpu",
		"--format=csv,noheader,nounits",
		"-i", strconv.Itoa(gpu),
	)
	if err != nil {
		return 0, err
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strconv.ParseFloat(strings.TrimSpace(lines[0]), 64)
}

// SetFanControl switches between manual (true) and driver controlled (false) fan speed
// for all fans of the given gpu.
func (c *Client) SetFanControl(ctx context.Context, gpu int, manual bool) error {
	state := 0
	if manual {
		state = 1
	}
	_, err := c.execute(ctx, nvidiaSettings,
		"-c", c.display,
		"-a", fmt.Sprintf("[gpu:%d]/GPUFanControlState=%d", gpu, state),
	)
	return err
}

// SetFanSpeed sets the target speed of a fan in percent. Only effective in manual mode.
func (c *Client) SetFanSpeed(ctx context.Context, fan int, percent int) error {
	_, err := c.execute(ctx, nvidiaSettings,
		"-c", c.display,
		"-a", fmt.Sprintf("[fan:%d]/GPUTargetFanSpeed=%d", fan, percent),
	)
	return err
}

func (c *Client) GetFanSpeed(ctx context.Context, fan int) (FanSpeed, error) {
	out, err := c.execute(ctx, nvidiaSettings,
		"-c", c.display,
		"-t",
		"-q", fmt.Sprintf("[fan:%d]/GPUCurrentFanSpeedRPM", fan),
		"-q", fmt.Sprintf("[fan:%d]/GPUCurrentFanSpeed", fan),
	)
	if err != nil {
		return FanSpeed{}, err
	}
	return parseFanSpeed(out)
}

func parseFanSpeed(out string) (FanSpeed, error) {
	lines := strings.Fields(out)
	if len(lines) < 2 {
		return FanSpeed{}, fmt.Errorf("unexpected nvidia-settings output: %q", out)
	}
	rpm, err := strconv.Atoi(lines[0])
	if err != nil {
		return FanSpeed{}, fmt.Errorf("invalid fan rpm %q: %w", lines[0], err)
	}
	percent, err := strconv.Atoi(lines[1])
	if err != nil {
		return FanSpeed{}, fmt.Errorf("invalid fan speed %q: %w", lines[1], err)
	}
	return FanSpeed{Rpm: rpm, Percent: percent}, nil
}
