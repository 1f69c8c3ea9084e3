package mqtt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/HerbHall/netscope/pkg/models"
)

// nonAlphanumeric matches any character that is not alphanumeric or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// DiscoveryConfig holds a single HA MQTT discovery payload.
type DiscoveryConfig struct {
	Topic   string // full MQTT topic (homeassistant/...)
	Payload []byte // JSON-encoded config, empty removes the entity
}

// HADevice is the "device" block in HA discovery payloads.
type HADevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

// SensorConfig is the HA discovery payload for sensor.
type SensorConfig struct {
	Name              string   `json:"name"`
	ObjectID          string   `json:"object_id"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic"`
	UnitOfMeasurement string   `json:"unit_of_measurement,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
	StateClass        string   `json:"state_class,omitempty"`
	Icon              string   `json:"icon,omitempty"`
	Device            HADevice `json:"device"`
}

// SafeObjectID sanitizes a string for use as an HA object_id: lowercased,
// non-alphanumerics replaced with underscores, outer underscores trimmed.
func SafeObjectID(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}

func haDevice(d models.Device) HADevice {
	name := d.Name
	if name == "" {
		name = d.IPAddress
	}
	return HADevice{
		Identifiers: []string{"netscope_" + SafeObjectID(d.ID)},
		Name:        name,
		Model:       d.MACAddress,
		ViaDevice:   "netscope",
	}
}

// DeviceStateTopic is where a device's metric is published.
func DeviceStateTopic(topicPrefix, deviceID, metric string) string {
	return topicPrefix + "/device/" + deviceID + "/" + metric
}

// BuildDeviceDiscoveryConfigs creates sensors for a device's status,
// latency, and bandwidth.
func BuildDeviceDiscoveryConfigs(d models.Device, topicPrefix, haPrefix string) []DiscoveryConfig {
	safeID := SafeObjectID(d.ID)
	dev := haDevice(d)

	sensors := []struct {
		metric string
		cfg    SensorConfig
	}{
		{"status", SensorConfig{Name: dev.Name + " Status", Icon: "mdi:lan-connect"}},
		{"latency", SensorConfig{Name: dev.Name + " Latency", UnitOfMeasurement: "ms", StateClass: "measurement", Icon: "mdi:timer-outline"}},
		{"bandwidth", SensorConfig{Name: dev.Name + " Bandwidth", UnitOfMeasurement: "B/s", DeviceClass: "data_rate", StateClass: "measurement"}},
	}

	configs := make([]DiscoveryConfig, 0, len(sensors))
	for _, s := range sensors {
		cfg := s.cfg
		cfg.ObjectID = "netscope_" + safeID + "_" + s.metric
		cfg.UniqueID = cfg.ObjectID
		cfg.StateTopic = DeviceStateTopic(topicPrefix, d.ID, s.metric)
		cfg.Device = dev
		payload, err := json.Marshal(cfg)
		if err != nil {
			continue
		}
		configs = append(configs, DiscoveryConfig{
			Topic:   fmt.Sprintf("%s/sensor/netscope_%s/%s/config", haPrefix, safeID, s.metric),
			Payload: payload,
		})
	}
	return configs
}

// BuildNetworkDiscoveryConfig creates the overall network status sensor.
func BuildNetworkDiscoveryConfig(topicPrefix, haPrefix string) DiscoveryConfig {
	cfg := SensorConfig{
		Name:       "Network Status",
		ObjectID:   "netscope_network_status",
		UniqueID:   "netscope_network_status",
		StateTopic: topicPrefix + "/status/overall",
		Icon:       "mdi:access-point-network",
		Device: HADevice{
			Identifiers: []string{"netscope"},
			Name:        "NetScope",
		},
	}
	payload, _ := json.Marshal(cfg)
	return DiscoveryConfig{
		Topic:   haPrefix + "/sensor/netscope/network_status/config",
		Payload: payload,
	}
}

// BuildDeviceRemovalConfigs returns empty discovery payloads, which tell HA
// to remove the device's entities.
func BuildDeviceRemovalConfigs(deviceID, haPrefix string) []DiscoveryConfig {
	safeID := SafeObjectID(deviceID)
	out := make([]DiscoveryConfig, 0, 3)
	for _, metric := range []string{"status", "latency", "bandwidth"} {
		out = append(out, DiscoveryConfig{Topic: fmt.Sprintf("%s/sensor/netscope_%s/%s/config", haPrefix, safeID, metric)})
	}
	return out
}
