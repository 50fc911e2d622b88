package devconfig

import "time"

// Configuration holds the settings a device controller applies to one
// device.
type Configuration struct {
	DeviceID string `json:"device_id"`

	// Interval is the reporting interval in seconds.
	Interval int `json:"interval"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the configuration before it is stored.
func (c *Configuration) Validate() error {
	if c.DeviceID == "" {
		return ErrInvalidDeviceID
	}
	if c.Interval <= 0 {
		return ErrInvalidInterval
	}
	return nil
}
