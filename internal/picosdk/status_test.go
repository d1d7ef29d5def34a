package picosdk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	assert.NoError(t, Check("ps5000aStop", StatusOK))

	err := Check("ps5000aSetChannel", StatusInvalidVoltageRange)
	assert.EqualError(t, err, "ps5000aSetChannel: PICO_INVALID_VOLTAGE_RANGE (15)")

	code, ok := StatusOf(fmt.Errorf("configure channel A: %w", err))
	assert.True(t, ok)
	assert.Equal(t, StatusInvalidVoltageRange, code)
}

func TestStatusOfPlainError(t *testing.T) {
	_, ok := StatusOf(fmt.Errorf("disk full"))
	assert.False(t, ok)
}

func TestPowerSourceRecoverable(t *testing.T) {
	assert.True(t, Status(282).PowerSourceRecoverable())
	assert.True(t, Status(286).PowerSourceRecoverable())
	assert.False(t, StatusNotFound.PowerSourceRecoverable())
	assert.False(t, StatusOK.PowerSourceRecoverable())
}

func TestStatusStringUnknown(t *testing.T) {
	assert.Equal(t, "PICO_STATUS(0x1234)", Status(0x1234).String())
}
