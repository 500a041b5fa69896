// Package device models the machines participating in the catalog.
// A device is identified solely by its user-chosen name; the OS and host
// fields are informational and filled best-effort at creation time.
package device

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/host"
)

// Device is the identity record for one participating machine.
// It is created once during init and never modified afterwards.
type Device struct {
	Name      string `yaml:"name"`
	OSName    string `yaml:"os_name"`
	OSVersion string `yaml:"os_version"`
	Hostname  string `yaml:"hostname"`
}

// New creates a Device named name, filling the host fields from the
// operating system. Fields that cannot be determined are set to "unknown".
func New(name string) (*Device, error) {
	if name == "" {
		return nil, fmt.Errorf("device name is empty")
	}

	d := &Device{
		Name:      name,
		OSName:    "unknown",
		OSVersion: "unknown",
		Hostname:  "unknown",
	}

	info, err := host.Info()
	if err != nil {
		// Informational fields only; keep the "unknown" placeholders.
		return d, nil
	}
	if info.Platform != "" {
		d.OSName = info.Platform
	}
	if info.PlatformVersion != "" {
		d.OSVersion = info.PlatformVersion
	}
	if info.Hostname != "" {
		d.Hostname = info.Hostname
	}
	return d, nil
}

// OtherInfo returns a short human-readable summary of the host fields.
func (d *Device) OtherInfo() string {
	return fmt.Sprintf("%s: (%s)", d.Hostname, d.OSName)
}

// Find returns the device with the given name from devices, or nil.
func Find(devices []Device, name string) *Device {
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i]
		}
	}
	return nil
}
