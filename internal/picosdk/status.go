package picosdk

import (
	"errors"
	"fmt"
)

// Status is a PICO_STATUS code returned by every driver call.
type Status uint32

const (
	StatusOK                      Status = 0x00
	StatusMaxUnitsOpened          Status = 0x01
	StatusMemoryFail              Status = 0x02
	StatusNotFound                Status = 0x03
	StatusFWFail                  Status = 0x04
	StatusOpenOperationInProgress Status = 0x05
	StatusOperationFailed         Status = 0x06
	StatusNotResponding           Status = 0x07
	StatusInvalidHandle           Status = 0x0C
	StatusInvalidParameter        Status = 0x0D
	StatusInvalidTimebase         Status = 0x0E
	StatusInvalidVoltageRange     Status = 0x0F
	StatusInvalidChannel          Status = 0x10
	StatusTooManySamples          Status = 0x18
	StatusPowerSupplyConnected    Status = 0x119
	StatusPowerSupplyNotConnected Status = 0x11A
	StatusUSB3DeviceNonUSB3Port   Status = 0x11E
)

var statusNames = map[Status]string{
	StatusOK:                      "PICO_OK",
	StatusMaxUnitsOpened:          "PICO_MAX_UNITS_OPENED",
	StatusMemoryFail:              "PICO_MEMORY_FAIL",
	StatusNotFound:                "PICO_NOT_FOUND",
	StatusFWFail:                  "PICO_FW_FAIL",
	StatusOpenOperationInProgress: "PICO_OPEN_OPERATION_IN_PROGRESS",
	StatusOperationFailed:         "PICO_OPERATION_FAILED",
	StatusNotResponding:           "PICO_NOT_RESPONDING",
	StatusInvalidHandle:           "PICO_INVALID_HANDLE",
	StatusInvalidParameter:        "PICO_INVALID_PARAMETER",
	StatusInvalidTimebase:         "PICO_INVALID_TIMEBASE",
	StatusInvalidVoltageRange:     "PICO_INVALID_VOLTAGE_RANGE",
	StatusInvalidChannel:          "PICO_INVALID_CHANNEL",
	StatusTooManySamples:          "PICO_TOO_MANY_SAMPLES",
	StatusPowerSupplyConnected:    "PICO_POWER_SUPPLY_CONNECTED",
	StatusPowerSupplyNotConnected: "PICO_POWER_SUPPLY_NOT_CONNECTED",
	StatusUSB3DeviceNonUSB3Port:   "PICO_USB3_0_DEVICE_NON_USB3_0_PORT",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PICO_STATUS(0x%X)", uint32(s))
}

// PowerSourceRecoverable reports whether an OpenUnit status can be cleared by
// calling ChangePowerSource with the same code.
func (s Status) PowerSourceRecoverable() bool {
	return s == StatusPowerSupplyNotConnected || s == StatusUSB3DeviceNonUSB3Port
}

// StatusError is returned when a driver call reports anything but PICO_OK.
type StatusError struct {
	Op   string
	Code Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Code, uint32(e.Code))
}

// Check converts a status into an error, nil for PICO_OK.
func Check(op string, s Status) error {
	if s == StatusOK {
		return nil
	}
	return &StatusError{Op: op, Code: s}
}

// StatusOf extracts the vendor code from err, if it carries one.
func StatusOf(err error) (Status, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
