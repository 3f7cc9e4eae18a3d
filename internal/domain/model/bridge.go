package model

import "strings"

// Firmware advisory constants.
const (
	VulnerableModelID      = "BSB002"
	FixedFirmwareVersion   = "1935144040"
	UpdateStateReady       = "readytoinstall"
	FirmwareNotificationID = "hue_hub_firmware"
)

// BridgeDescriptor is the read-only identity snapshot of a connected bridge.
type BridgeDescriptor struct {
	BridgeID          string `json:"bridgeid"`
	Mac               string `json:"mac"`
	Name              string `json:"name"`
	ModelID           string `json:"modelid"`
	SwVersion         string `json:"swversion"`
	BridgeUpdateState string `json:"swupdate2_bridge_state"`
}

// NormalizeBridgeID converts the bridge id formats reported by zeroconf,
// N-UPnP and the bridge API into the 12 character lowercase form.
func NormalizeBridgeID(id string) string {
	id = strings.ToLower(id)

	// zeroconf: aa:bb:cc:dd:ee:ff
	if len(id) == 17 && strings.Count(id, ":") == 5 {
		return strings.ReplaceAll(id, ":", "")
	}

	// N-UPnP: "fffe" inserted in the middle
	if len(id) == 16 && id[6:10] == "fffe" {
		return id[0:6] + id[10:]
	}

	return id
}

// BridgeStatus is the runtime state of a loaded bridge connection.
type BridgeStatus struct {
	Ready            bool `json:"ready"`
	Lights           int  `json:"lights"`
	Groups           int  `json:"groups"`
	AllowUnreachable bool `json:"allow_unreachable"`
	AllowHueGroups   bool `json:"allow_hue_groups"`
}
