package model

import "time"

const (
	ConnectionNetworkMAC = "mac"
	Manufacturer         = "Signify"
)

// Connection is a (kind, address) pair such as ("mac", "00:17:88:...").
type Connection struct {
	Kind    string `json:"kind"`
	Address string `json:"address"`
}

// Identifier is a (domain, id) pair unique to an integration.
type Identifier struct {
	Domain string `json:"domain"`
	ID     string `json:"id"`
}

// DeviceSpec is what an integration asks the device registry to register.
type DeviceSpec struct {
	ConfigEntryID string
	Connections   []Connection
	Identifiers   []Identifier
	Manufacturer  string
	Name          string
	Model         string
	SwVersion     string
}

// Device is a registered device record.
type Device struct {
	ID            string       `json:"id"`
	ConfigEntries []string     `json:"config_entries"`
	Connections   []Connection `json:"connections"`
	Identifiers   []Identifier `json:"identifiers"`
	Manufacturer  string       `json:"manufacturer"`
	Name          string       `json:"name"`
	Model         string       `json:"model"`
	SwVersion     string       `json:"sw_version"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
