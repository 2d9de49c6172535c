package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const CONFILE = "config.yml"

type SerialConfig struct {
	Device string `yaml:"Device"`
	Baud   int    `yaml:"Baud"`
}

type ReceiverConfig struct {
	// Pin is the periph.io pin name of the IR demodulator output,
	// e.g. "GPIO23".
	Pin string `yaml:"Pin"`
	// FrameGap is the idle time after which a burst of edges counts
	// as one complete signal.
	FrameGap  time.Duration `yaml:"FrameGap"`
	MaxPulses int           `yaml:"MaxPulses"`
}

type InputConfig struct {
	HoldThreshold time.Duration `yaml:"HoldThreshold"`
	ScanInterval  time.Duration `yaml:"ScanInterval"`
	BackPin       int           `yaml:"BackPin"`
	OkPin         int           `yaml:"OkPin"`
}

type DisplayConfig struct {
	RenderInterval time.Duration `yaml:"RenderInterval"`
	HistorySize    int           `yaml:"HistorySize"`
}

type LogSinkConfig struct {
	File string `yaml:"File"`
}

type LoggingConfig struct {
	Level  string `yaml:"Level"`
	Format string `yaml:"Format"`
	File   string `yaml:"File"`
}

type Config struct {
	RealHW     bool   `yaml:"-"`
	Configfile string `yaml:"-"`

	Serial   SerialConfig   `yaml:"Serial"`
	Receiver ReceiverConfig `yaml:"Receiver"`
	Input    InputConfig    `yaml:"Input"`
	Display  DisplayConfig  `yaml:"Display"`
	LogSink  LogSinkConfig  `yaml:"LogSink"`
	Logging  LoggingConfig  `yaml:"Logging"`
}

// validBaudRates lists the rates the serial layer can map to termios
// constants.
var validBaudRates = map[int]bool{
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
	230400: true,
}

func defaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			Device: "/dev/serial0",
			Baud:   115200,
		},
		Receiver: ReceiverConfig{
			Pin:       "GPIO23",
			FrameGap:  10 * time.Millisecond,
			MaxPulses: 200,
		},
		Input: InputConfig{
			HoldThreshold: time.Second,
			ScanInterval:  10 * time.Millisecond,
			BackPin:       17,
			OkPin:         27,
		},
		Display: DisplayConfig{
			RenderInterval: 100 * time.Millisecond,
			HistorySize:    8,
		},
		LogSink: LogSinkConfig{
			File: "/var/log/flametunnel.log",
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// ReadConfig reads and validates the configuration file. Values not
// present in the file keep their defaults.
func ReadConfig(cfile string, realhw bool) (*Config, error) {
	f, err := os.Open(cfile)
	if err != nil {
		return nil, fmt.Errorf("can't open config file %s: %w", cfile, err)
	}
	defer f.Close()

	conf := defaultConfig()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(conf); err != nil {
		return nil, fmt.Errorf("can't decode config file %s: %w", cfile, err)
	}
	conf.RealHW = realhw
	conf.Configfile = cfile

	if err := conf.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", cfile, err)
	}
	return conf, nil
}

func (c *Config) validate() error {
	if !validBaudRates[c.Serial.Baud] {
		return fmt.Errorf("unsupported baud rate %d", c.Serial.Baud)
	}
	if c.Serial.Device == "" {
		return fmt.Errorf("serial device must not be empty")
	}
	if c.Receiver.FrameGap <= 0 {
		return fmt.Errorf("receiver frame gap must be positive, got %s", c.Receiver.FrameGap)
	}
	if c.Receiver.MaxPulses <= 0 {
		return fmt.Errorf("receiver max pulses must be positive, got %d", c.Receiver.MaxPulses)
	}
	if c.Input.HoldThreshold <= 0 {
		return fmt.Errorf("input hold threshold must be positive, got %s", c.Input.HoldThreshold)
	}
	if c.Input.ScanInterval <= 0 {
		return fmt.Errorf("input scan interval must be positive, got %s", c.Input.ScanInterval)
	}
	if c.Input.BackPin == c.Input.OkPin {
		return fmt.Errorf("back and ok buttons must use distinct pins, both are %d", c.Input.BackPin)
	}
	if c.Display.RenderInterval <= 0 {
		return fmt.Errorf("display render interval must be positive, got %s", c.Display.RenderInterval)
	}
	if c.Display.HistorySize < 0 {
		return fmt.Errorf("display history size must not be negative, got %d", c.Display.HistorySize)
	}
	if c.LogSink.File == "" {
		return fmt.Errorf("log sink file must not be empty")
	}
	return nil
}
