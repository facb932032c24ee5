// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package hass

// DeviceInfo holds the Home Assistant device registry fields shared by
// every discovery payload this agent publishes.  All sensors reference
// the same device block so HA groups them under one device page.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// SensorConfig is the JSON payload for an HA MQTT sensor discovery
// message.  It is published retained on every broker (re-)connect.
type SensorConfig struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	StateTopic        string     `json:"state_topic"`
	AvailabilityTopic string     `json:"availability_topic"`
	Device            DeviceInfo `json:"device"`
	DeviceClass       string     `json:"device_class,omitempty"`
	Icon              string     `json:"icon,omitempty"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	StateClass        string     `json:"state_class,omitempty"`
	EntityCategory    string     `json:"entity_category,omitempty"`
}

func newDeviceInfo(deviceID, deviceName, version string) DeviceInfo {
	return DeviceInfo{
		Identifiers:  []string{deviceID},
		Name:         deviceName,
		Manufacturer: "SunWEG",
		Model:        "SunWEG Agent",
		SWVersion:    version,
	}
}
