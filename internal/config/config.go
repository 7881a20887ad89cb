// Package config reads the logger settings that decide how the serial ports
// are brought up: the baud-rate table index per NMEA port, whether port A runs
// the Seatalk 9-bit bus, and the feature flags stored next to them.
//
// Settings come either from the config.dat file generated by the web
// configurator and copied to the SD card, or from the record image kept in
// EEPROM. Reading and writing the storage itself is not done here.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/openseamap/tinygo-uart9/uart9"
	"gopkg.in/ini.v1"
)

// BaudRates is the rate table indexed by the stored baud setting. Index 0
// disables the port.
var BaudRates = [...]uint32{0, 1200, 2400, 4800, 9600, 19200, 38400}

const (
	// SeatalkRate is the fixed Seatalk bus rate.
	SeatalkRate = 4800
	// maxIndexB is the highest table index port B supports (4800 baud).
	maxIndexB = 3
	// defaultIndex selects 4800 baud.
	defaultIndex = 3
)

// Output flag bits.
const (
	OutputVCC  = 1 << 0 // write board supply messages
	OutputGyro = 1 << 1 // write gyro and accelerometer messages
)

// EEPROM record offsets.
const (
	offBaudA      = 0x10
	offBaudB      = 0x11
	offSeatalk    = 0x12
	offOutput     = 0x13
	offVesselID   = 0x14 // 4 bytes, little endian
	offBootloader = 0x19
	recordEnd     = offBootloader + 1
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid logger configuration")

// defaultConfig is loaded underneath every config.dat.
const defaultConfig = `
[nmea_a]
baud = 3
seatalk = false

[nmea_b]
baud = 3

[output]
gyro = true
vcc = false

[vessel]
id = 0
`

// Sections is the logger configuration.
type Sections struct {
	// NMEAA is the first NMEA 0183 input; it can also carry Seatalk.
	NMEAA *PortSection `ini:"nmea_a,omitempty"`
	// NMEAB is the second NMEA 0183 input.
	NMEAB *PortSection `ini:"nmea_b,omitempty"`
	// Output holds the optional message groups.
	Output *Output `ini:"output,omitempty"`
	// Vessel identifies the boat the logger is installed on.
	Vessel *Vessel `ini:"vessel,omitempty"`
	// BootloaderVersion is only known when read from EEPROM.
	BootloaderVersion uint8 `ini:"-"`
}

// PortSection is the configuration of one serial input.
type PortSection struct {
	// Baud is the index into BaudRates.
	Baud int `ini:"baud"`
	// Seatalk switches the port to the Seatalk bus (4800 baud, 9 bits).
	Seatalk bool `ini:"seatalk"`
}

// Output holds the optional message groups.
type Output struct {
	Gyro bool `ini:"gyro"`
	VCC  bool `ini:"vcc"`
}

// Vessel identifies the boat.
type Vessel struct {
	ID uint32 `ini:"id"`
}

// PortSettings is what a port needs for uart9.Port.Begin.
type PortSettings struct {
	Name    string
	Enabled bool
	Rate    uint32
	Line    uart9.LineConfig
}

// Load reads config.dat style sources (file names, []byte or io.Reader) on
// top of the defaults and validates the result.
func Load(sources ...any) (*Sections, error) {
	opts := ini.LoadOptions{
		Insensitive: true,
	}
	cfg, err := ini.LoadSources(opts, []byte(defaultConfig), sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	sections := new(Sections)
	if err := cfg.MapTo(sections); err != nil {
		return nil, fmt.Errorf("failed to map configuration to object: %w", err)
	}
	if err := sections.Validate(); err != nil {
		return nil, err
	}
	return sections, nil
}

// FromEEPROM decodes the configuration record from an EEPROM image.
func FromEEPROM(image []byte) (*Sections, error) {
	if len(image) < recordEnd {
		return nil, fmt.Errorf("%w: EEPROM image is %d bytes, need %d", ErrInvalid, len(image), recordEnd)
	}
	out := image[offOutput]
	s := &Sections{
		NMEAA: &PortSection{
			Baud:    int(image[offBaudA]),
			Seatalk: image[offSeatalk] != 0,
		},
		NMEAB:             &PortSection{Baud: int(image[offBaudB])},
		Output:            &Output{VCC: out&OutputVCC != 0, Gyro: out&OutputGyro != 0},
		Vessel:            &Vessel{ID: binary.LittleEndian.Uint32(image[offVesselID:])},
		BootloaderVersion: image[offBootloader],
	}
	// Erased EEPROM reads back 0xFF; fall back to the default rate.
	if s.NMEAA.Baud == 0xFF {
		s.NMEAA.Baud = defaultIndex
	}
	if s.NMEAB.Baud == 0xFF {
		s.NMEAB.Baud = defaultIndex
	}
	if image[offSeatalk] == 0xFF {
		s.NMEAA.Seatalk = false
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// EEPROMRecord encodes s into the EEPROM record layout. The returned slice
// covers offsets 0 up to the end of the record; bytes outside the record
// are 0xFF, as in erased EEPROM.
func (s *Sections) EEPROMRecord() []byte {
	b := make([]byte, recordEnd)
	for i := range b {
		b[i] = 0xFF
	}
	b[offBaudA] = byte(s.NMEAA.Baud)
	b[offBaudB] = byte(s.NMEAB.Baud)
	b[offSeatalk] = 0
	if s.NMEAA.Seatalk {
		b[offSeatalk] = 1
	}
	var out byte
	if s.Output.VCC {
		out |= OutputVCC
	}
	if s.Output.Gyro {
		out |= OutputGyro
	}
	b[offOutput] = out
	binary.LittleEndian.PutUint32(b[offVesselID:], s.Vessel.ID)
	b[offBootloader] = s.BootloaderVersion
	return b
}

// Validate checks the table indices against the port limits.
func (s *Sections) Validate() error {
	if s.NMEAA == nil || s.NMEAB == nil || s.Output == nil || s.Vessel == nil {
		return fmt.Errorf("%w: missing section", ErrInvalid)
	}
	if s.NMEAA.Baud < 0 || s.NMEAA.Baud >= len(BaudRates) {
		return fmt.Errorf("%w: nmea_a baud index %d", ErrInvalid, s.NMEAA.Baud)
	}
	if s.NMEAB.Baud < 0 || s.NMEAB.Baud > maxIndexB {
		return fmt.Errorf("%w: nmea_b baud index %d (port B is limited to %d baud)", ErrInvalid, s.NMEAB.Baud, BaudRates[maxIndexB])
	}
	return nil
}

// Ports returns the settings for port A and port B, in that order. Seatalk
// overrides the baud index of port A.
func (s *Sections) Ports() []PortSettings {
	a := PortSettings{Name: "nmea_a", Rate: BaudRates[s.NMEAA.Baud], Line: uart9.Config8N1}
	if s.NMEAA.Seatalk {
		a.Rate = SeatalkRate
		a.Line = uart9.Config9N1
	}
	a.Enabled = a.Rate != 0

	b := PortSettings{Name: "nmea_b", Rate: BaudRates[s.NMEAB.Baud], Line: uart9.Config8N1}
	b.Enabled = b.Rate != 0
	return []PortSettings{a, b}
}
