// Package picosdk mirrors the parts of the PicoScope 5000A (ps5000a) driver
// API that the acquisition routine needs, as plain Go types.
//
// Enum values match the C headers so the cgo driver can pass them through
// unchanged.
package picosdk

import "fmt"

// Channel identifies an analogue input.
type Channel int32

const (
	ChannelA Channel = iota
	ChannelB
	ChannelC
	ChannelD
)

// Channels lists the four analogue inputs in acquisition order.
var Channels = []Channel{ChannelA, ChannelB, ChannelC, ChannelD}

func (c Channel) String() string {
	switch c {
	case ChannelA:
		return "A"
	case ChannelB:
		return "B"
	case ChannelC:
		return "C"
	case ChannelD:
		return "D"
	default:
		return fmt.Sprintf("Channel(%d)", int32(c))
	}
}

// Coupling selects AC or DC input coupling.
type Coupling int32

const (
	CouplingAC Coupling = iota
	CouplingDC
)

// Range is the full-scale input range of a channel.
type Range int32

const (
	Range10mV Range = iota
	Range20mV
	Range50mV
	Range100mV
	Range200mV
	Range500mV
	Range1V
	Range2V
	Range5V
	Range10V
	Range20V
	Range50V
)

// rangeMillivolts is indexed by Range.
var rangeMillivolts = [...]float64{10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 20000, 50000}

// Millivolts returns the full-scale value of r.
func (r Range) Millivolts() (float64, error) {
	if r < 0 || int(r) >= len(rangeMillivolts) {
		return 0, fmt.Errorf("invalid range %d", int32(r))
	}
	return rangeMillivolts[r], nil
}

// ParseRange maps labels such as "20V" or "500mV" to a Range.
func ParseRange(s string) (Range, error) {
	labels := map[string]Range{
		"10mV": Range10mV, "20mV": Range20mV, "50mV": Range50mV,
		"100mV": Range100mV, "200mV": Range200mV, "500mV": Range500mV,
		"1V": Range1V, "2V": Range2V, "5V": Range5V,
		"10V": Range10V, "20V": Range20V, "50V": Range50V,
	}
	r, ok := labels[s]
	if !ok {
		return 0, fmt.Errorf("unknown range %q", s)
	}
	return r, nil
}

// Resolution is the vertical resolution of the ADC.
type Resolution int32

const (
	Resolution8Bit Resolution = iota
	Resolution12Bit
	Resolution14Bit
	Resolution15Bit
	Resolution16Bit
)

// ParseResolution accepts bit counts 8, 12, 14, 15 and 16.
func ParseResolution(bits int) (Resolution, error) {
	switch bits {
	case 8:
		return Resolution8Bit, nil
	case 12:
		return Resolution12Bit, nil
	case 14:
		return Resolution14Bit, nil
	case 15:
		return Resolution15Bit, nil
	case 16:
		return Resolution16Bit, nil
	}
	return 0, fmt.Errorf("unsupported resolution %d bits", bits)
}

// ThresholdDirection is the edge or level a trigger reacts to.
type ThresholdDirection int32

const (
	Above ThresholdDirection = iota
	Below
	Rising
	Falling
	RisingOrFalling
)

// ThresholdMode selects level or window triggering.
type ThresholdMode int32

const (
	ThresholdLevel ThresholdMode = iota
	ThresholdWindow
)

// TriggerState is the state a channel must be in for a condition to hold.
type TriggerState int32

const (
	ConditionDontCare TriggerState = iota
	ConditionTrue
	ConditionFalse
)

// ConditionsInfo tells the driver how to merge a new condition set with the
// existing ones. Values are bit flags.
type ConditionsInfo int32

const (
	ConditionsClear ConditionsInfo = 1
	ConditionsAdd   ConditionsInfo = 2
)

// RatioMode selects the downsampling mode for data retrieval.
type RatioMode int32

const RatioModeNone RatioMode = 0

// TriggerChannelProperties holds the thresholds of one trigger channel.
type TriggerChannelProperties struct {
	ThresholdUpper           int16
	ThresholdUpperHysteresis uint16
	ThresholdLower           int16
	ThresholdLowerHysteresis uint16
	Channel                  Channel
}

// Condition is one term of a trigger condition set.
type Condition struct {
	Source Channel
	State  TriggerState
}

// Direction is the trigger direction of one channel.
type Direction struct {
	Channel   Channel
	Direction ThresholdDirection
	Mode      ThresholdMode
}
