// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package main

// Config is the top-level TOML document read at startup.
type Config struct {
	Debug    bool
	Identity IdentityConfig
	Mqtt     MqttConfig
	Radio    []RadioConfig
}

// IdentityConfig names the mount point and file holding the node's
// credential document (identity.Load's two arguments).
type IdentityConfig struct {
	MountPath string `toml:"mount_path"`
	FileName  string `toml:"file_name"`
}

// MqttConfig names the broker this gateway bridges received frames to
// and reads outbound frames from.
type MqttConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	RxTopic    string `toml:"rx_topic"` // published to, per radio prefix
	TxTopic    string `toml:"tx_topic"` // subscribed to, per radio prefix
}

// RadioConfig describes one SX127x instance and the settings it should
// be configured with before the MAC is started.
type RadioConfig struct {
	Prefix string // MQTT topic prefix and log tag for this radio

	SpiBus string `toml:"spi_bus"` // periph port name, e.g. "/dev/spidev0.0"

	// CSMuxPin, if set, shares SpiBus with another radio via spimux
	// rather than dedicating the bus to this radio alone.
	CSMuxPin string `toml:"cs_mux_pin"`

	ResetPin string `toml:"reset_pin"`
	Dio0Pin  string `toml:"dio0_pin"`
	Dio1Pin  string `toml:"dio1_pin"`
	Dio3Pin  string `toml:"dio3_pin"`

	FreqHz     uint32 `toml:"freq_hz"`
	Bandwidth  string
	SpreadFact uint32 `toml:"spreading_factor"`
	CodingRate uint32 `toml:"coding_rate"`
	OutputPwr  uint32 `toml:"output_power"`

	OperatorID string `toml:"operator_id"`
}
