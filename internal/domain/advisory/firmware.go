package advisory

import "hue-bridge-integration/internal/domain/model"

type Kind int

const (
	None Kind = iota
	// Vulnerable firmware: raise a persistent notification.
	SecurityVulnerability
	// An update is downloaded and waiting: log a warning.
	UpdateReady
)

const (
	Title           = "Signify Hue"
	SecurityMessage = "Your Hue hub has a known security vulnerability " +
		"([CVE-2020-6007](https://cve.circl.lu/cve/CVE-2020-6007)). " +
		"Go to the Hue app and check for software updates."
	UpdateMessage = "Please check for software updates of the bridge in the Philips Hue App."
)

// Check returns the single advisory that applies to a bridge, if any.
// Firmware versions are compared as strings.
func Check(desc model.BridgeDescriptor) Kind {
	if desc.ModelID == model.VulnerableModelID && desc.SwVersion < model.FixedFirmwareVersion {
		return SecurityVulnerability
	}
	if desc.BridgeUpdateState == model.UpdateStateReady {
		return UpdateReady
	}
	return None
}

// SecurityNotification is the notification raised for vulnerable firmware.
func SecurityNotification() model.Notification {
	return model.Notification{
		ID:      model.FirmwareNotificationID,
		Title:   Title,
		Message: SecurityMessage,
	}
}
