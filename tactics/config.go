package tactics

import "fmt"

// Config holds the tactical settings shared by every boat.
type Config struct {
	// ChannelOffset is the inner half width of the channel around the direct line to the mark, in metres.
	ChannelOffset float64 `yaml:"channelOffset" json:"channelOffset"`
	// ShiftThreshold is the wind shift against the mean wind that makes one tack better, in degrees.
	ShiftThreshold float64 `yaml:"shiftThreshold" json:"shiftThreshold"`
	// HeaderAngle is the deviation from the optimal angle to the wind tolerated before correcting.
	HeaderAngle float64 `yaml:"headerAngle" json:"headerAngle"`
	// TackIfHeaded tacks or gybes on a header instead of bearing away.
	TackIfHeaded bool `yaml:"tackIfHeaded" json:"tackIfHeaded"`
	// Tolerance is the angular slack, in degrees, used for layline and heading comparisons.
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
	// MarkZone is the distance within which a mark behind the boat is rounded, in metres.
	MarkZone float64 `yaml:"markZone" json:"markZone"`
}

func DefaultConfig() Config {
	return Config{
		ChannelOffset:  50,
		ShiftThreshold: 5,
		HeaderAngle:    10,
		Tolerance:      2,
		MarkZone:       30,
	}
}

func (c Config) Validate() error {
	if c.ChannelOffset <= 0 {
		return fmt.Errorf("channel offset must be positive")
	}
	if c.MarkZone <= 0 {
		return fmt.Errorf("mark zone must be positive")
	}
	if c.ShiftThreshold < 0 || c.HeaderAngle < 0 || c.Tolerance < 0 {
		return fmt.Errorf("tactical angles must not be negative")
	}
	return nil
}
