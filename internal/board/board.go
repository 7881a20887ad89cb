// Package board describes the hardware a set of ports runs on: the
// peripheral clock that baud divisors are computed from and which USART
// serves which logical port.
package board

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/openseamap/tinygo-uart9/uart9"
	"gopkg.in/yaml.v3"
)

//go:embed osmlogger.yaml
var defaultProfile []byte

// ErrInvalidProfile is wrapped by every validation error.
var ErrInvalidProfile = errors.New("invalid board profile")

// Profile is a board description.
type Profile struct {
	Name    string `yaml:"name"`
	ClockHz uint32 `yaml:"clock_hz"`
	Ports   []Port `yaml:"ports"`
}

// Port maps a logical port name to a USART slot.
type Port struct {
	Name  string `yaml:"name"`
	USART int    `yaml:"usart"`
	// MaxRate caps the configurable rate; 0 means no cap.
	MaxRate uint32 `yaml:"max_rate,omitempty"`
}

// Default returns the profile of the OpenSeaMap logger.
func Default() (*Profile, error) {
	return Parse(defaultProfile)
}

// Load reads a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board profile %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML profile.
func Parse(data []byte) (*Profile, error) {
	p := new(Profile)
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse board profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the clock and that every port has a unique name and USART.
func (p *Profile) Validate() error {
	if p.ClockHz == 0 {
		return fmt.Errorf("%w: clock_hz must be set", ErrInvalidProfile)
	}
	if len(p.Ports) == 0 {
		return fmt.Errorf("%w: no ports", ErrInvalidProfile)
	}
	names := make(map[string]bool)
	usarts := make(map[int]bool)
	for _, port := range p.Ports {
		if port.Name == "" {
			return fmt.Errorf("%w: port without a name", ErrInvalidProfile)
		}
		if port.USART < 0 || port.USART >= uart9.MaxPorts {
			return fmt.Errorf("%w: port %q: usart %d out of range", ErrInvalidProfile, port.Name, port.USART)
		}
		if names[port.Name] {
			return fmt.Errorf("%w: duplicate port %q", ErrInvalidProfile, port.Name)
		}
		if usarts[port.USART] {
			return fmt.Errorf("%w: usart %d used twice", ErrInvalidProfile, port.USART)
		}
		names[port.Name] = true
		usarts[port.USART] = true
	}
	return nil
}

// Port returns the port called name.
func (p *Profile) Port(name string) (Port, bool) {
	for _, port := range p.Ports {
		if port.Name == name {
			return port, true
		}
	}
	return Port{}, false
}

// CheckRate reports whether rate is allowed on port.
func (port Port) CheckRate(rate uint32) error {
	if port.MaxRate != 0 && rate > port.MaxRate {
		return fmt.Errorf("%w: port %q is limited to %d baud, got %d", ErrInvalidProfile, port.Name, port.MaxRate, rate)
	}
	return nil
}
