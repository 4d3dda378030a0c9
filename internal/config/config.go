// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/inertial_odometer/internal/odometry"
)

// Sample sources selectable with SAMPLE_SOURCE.
const (
	SourceIMU    = "imu"
	SourceMock   = "mock"
	SourceSerial = "serial"
	SourceMQTT   = "mqtt"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDOdometer string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicAccelRaw      string
	TopicAccelInterval string
	TopicOdometry      string
	TopicOdometryReset string

	// Sample source: "imu", "mock", "serial" or "mqtt"
	SampleSource string

	// IMU Hardware
	IMUSPIDevice    string
	IMUCSPin        string
	IMUAccelLSBPerG float64 // 16384 at ±2g

	// Serial accelerometer
	SerialPort     string
	SerialBaudRate int

	// Timing
	AccelUpdateInterval int // milliseconds
	ConsoleLogInterval  int // milliseconds

	// Odometry tuning
	KalmanProcessNoise      float64
	KalmanMeasurementNoise  float64
	KalmanInitialEstimate   float64
	KalmanInitialCovariance float64
	StationaryWindow        int
	StationaryThreshold     float64 // m/s²
	VelocityDecay           float64
	ResetEstimators         bool

	// Recording (CSV time_ms,ax,ay,az); empty disables it
	RecordPath string

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string // "" = first available bus
	DisplayUpdateInterval int    // milliseconds
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	odo := odometry.DefaultConfig()
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDOdometer: "inertial-odometer",
		MQTTClientIDProducer: "inertial-odometer-producer",
		MQTTClientIDConsole:  "inertial-odometer-console",
		MQTTClientIDWeb:      "inertial-odometer-web",
		MQTTClientIDDisplay:  "inertial-odometer-display",

		TopicAccelRaw:      "inertial/accel/raw",
		TopicAccelInterval: "inertial/accel/interval",
		TopicOdometry:      "inertial/odometry",
		TopicOdometryReset: "inertial/odometry/reset",

		SampleSource: SourceMock,

		IMUSPIDevice:    "/dev/spidev6.0",
		IMUCSPin:        "18",
		IMUAccelLSBPerG: 16384,

		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 115200,

		AccelUpdateInterval: 16,
		ConsoleLogInterval:  1000,

		KalmanProcessNoise:      odo.ProcessNoise,
		KalmanMeasurementNoise:  odo.MeasurementNoise,
		KalmanInitialEstimate:   odo.InitialEstimate,
		KalmanInitialCovariance: odo.InitialCovariance,
		StationaryWindow:        odo.Window,
		StationaryThreshold:     odo.Threshold,
		VelocityDecay:           odo.Decay,
		ResetEstimators:         odo.ResetEstimators,

		WebServerPort: 8080,

		DisplayUpdateInterval: 200,
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		if err := cfg.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error

	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_ODOMETER":
		c.MQTTClientIDOdometer = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_ACCEL_RAW":
		c.TopicAccelRaw = value
	case "TOPIC_ACCEL_INTERVAL":
		c.TopicAccelInterval = value
	case "TOPIC_ODOMETRY":
		c.TopicOdometry = value
	case "TOPIC_ODOMETRY_RESET":
		c.TopicOdometryReset = value

	case "SAMPLE_SOURCE":
		switch value {
		case SourceIMU, SourceMock, SourceSerial, SourceMQTT:
			c.SampleSource = value
		default:
			return fmt.Errorf("SAMPLE_SOURCE must be imu, mock, serial or mqtt, got %q", value)
		}

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_LSB_PER_G":
		c.IMUAccelLSBPerG, err = parseFloat(key, value)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value)

	// Timing
	case "ACCEL_UPDATE_INTERVAL":
		c.AccelUpdateInterval, err = parseInt(key, value)
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parseInt(key, value)

	// Odometry tuning
	case "KALMAN_PROCESS_NOISE":
		c.KalmanProcessNoise, err = parseFloat(key, value)
	case "KALMAN_MEASUREMENT_NOISE":
		c.KalmanMeasurementNoise, err = parseFloat(key, value)
	case "KALMAN_INITIAL_ESTIMATE":
		c.KalmanInitialEstimate, err = parseFloat(key, value)
	case "KALMAN_INITIAL_COVARIANCE":
		c.KalmanInitialCovariance, err = parseFloat(key, value)
	case "STATIONARY_WINDOW":
		c.StationaryWindow, err = parseInt(key, value)
	case "STATIONARY_THRESHOLD":
		c.StationaryThreshold, err = parseFloat(key, value)
	case "VELOCITY_DECAY":
		c.VelocityDecay, err = parseFloat(key, value)
	case "RESET_ESTIMATORS":
		c.ResetEstimators, err = strconv.ParseBool(value)
		if err != nil {
			err = fmt.Errorf("invalid %s %q: %w", key, value, err)
		}

	case "RECORD_PATH":
		c.RecordPath = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// validate checks the fields every command depends on.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.AccelUpdateInterval <= 0 {
		return fmt.Errorf("ACCEL_UPDATE_INTERVAL must be > 0, got %d", c.AccelUpdateInterval)
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must be > 0, got %d", c.ConsoleLogInterval)
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be > 0, got %d", c.DisplayUpdateInterval)
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be > 0, got %d", c.SerialBaudRate)
	}
	if c.WebServerPort < 1 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if c.IMUAccelLSBPerG <= 0 {
		return fmt.Errorf("IMU_ACCEL_LSB_PER_G must be > 0, got %g", c.IMUAccelLSBPerG)
	}
	if err := c.Odometry().Validate(); err != nil {
		return fmt.Errorf("odometry tuning: %w", err)
	}
	return nil
}

// Odometry returns the pipeline tuning.
func (c *Config) Odometry() odometry.Config {
	return odometry.Config{
		ProcessNoise:      c.KalmanProcessNoise,
		MeasurementNoise:  c.KalmanMeasurementNoise,
		InitialEstimate:   c.KalmanInitialEstimate,
		InitialCovariance: c.KalmanInitialCovariance,
		Window:            c.StationaryWindow,
		Threshold:         c.StationaryThreshold,
		Decay:             c.VelocityDecay,
		ResetEstimators:   c.ResetEstimators,
	}
}

// AccelInterval is ACCEL_UPDATE_INTERVAL as a duration.
func (c *Config) AccelInterval() time.Duration {
	return time.Duration(c.AccelUpdateInterval) * time.Millisecond
}

// LogInterval is CONSOLE_LOG_INTERVAL as a duration.
func (c *Config) LogInterval() time.Duration {
	return time.Duration(c.ConsoleLogInterval) * time.Millisecond
}

// InitGlobal loads the configuration once; later calls return the first result.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
