package picosdk

// Driver is the ps5000a block-mode API bound to a single unit. The
// implementation owns the device handle between OpenUnit and CloseUnit.
//
// Methods return the raw vendor status; callers decide what is fatal.
type Driver interface {
	OpenUnit(res Resolution) Status
	ChangePowerSource(state Status) Status
	IsOpen() bool

	SetChannel(ch Channel, enabled bool, coupling Coupling, r Range, analogOffset float32) Status
	MaximumValue() (int16, Status)

	SetTriggerChannelPropertiesV2(props []TriggerChannelProperties, auxOutputEnable int16) Status
	SetTriggerChannelConditionsV2(conds []Condition, info ConditionsInfo) Status
	SetTriggerChannelDirectionsV2(dirs []Direction) Status

	// GetTimebase2 reports the sample interval in nanoseconds and the maximum
	// number of samples available for the given timebase.
	GetTimebase2(timebase uint32, samples int32, segment uint32) (intervalNs float32, maxSamples int32, s Status)

	RunBlock(preTrigger, postTrigger int32, timebase uint32, segment uint32) Status
	IsReady() (bool, Status)

	// SetDataBuffers registers a driver-owned buffer of length samples for ch.
	SetDataBuffers(ch Channel, length int32, segment uint32, mode RatioMode) Status
	// GetValues fills the registered buffers and returns the number of samples
	// actually retrieved.
	GetValues(start, samples, downSampleRatio uint32, mode RatioMode, segment uint32) (n uint32, overflow int16, s Status)
	// Buffer returns a copy of the data retrieved for ch by the last GetValues.
	Buffer(ch Channel) []int16

	Stop() Status
	CloseUnit() Status
}
