package picosdk

import (
	"math"
	"sync"
)

// Waveform returns the input voltage in millivolts at t seconds after the
// first sample.
type Waveform func(t float64) float64

// Sine returns a sinusoid of the given amplitude (mV) and frequency (Hz).
func Sine(amplitude, frequency float64) Waveform {
	return func(t float64) float64 {
		return amplitude * math.Sin(2*math.Pi*frequency*t)
	}
}

// Constant returns a DC level in millivolts.
func Constant(mv float64) Waveform {
	return func(float64) float64 { return mv }
}

// Simulated is an in-process stand-in for a PicoScope 5000A. It honours the
// channel ranges, timebase formula and block-mode call order of the real
// unit, and can be told to fail individual calls.
type Simulated struct {
	// Signals holds the input applied to each channel; missing channels read 0.
	Signals map[Channel]Waveform
	// OpenStatus is returned by the first OpenUnit call.
	OpenStatus Status
	// ReadyAfter is the number of IsReady polls that report not ready.
	ReadyAfter int
	// Fail maps a method name (e.g. "SetChannel") to the status it returns.
	Fail map[string]Status
	// ShortRead, when non-zero, caps the samples returned by GetValues.
	ShortRead uint32

	mu         sync.Mutex
	calls      []string
	open       bool
	opened     int
	res        Resolution
	ranges     map[Channel]Range
	enabled    map[Channel]bool
	timebase   uint32
	pre, post  int32
	running    bool
	polls      int
	registered map[Channel]int32
	buffers    map[Channel][]int16
}

// NewSimulated returns a simulated scope with a 1 kHz test tone on every
// channel, scaled so each fits its default range.
func NewSimulated() *Simulated {
	return &Simulated{
		Signals: map[Channel]Waveform{
			ChannelA: Sine(5000, 1000),
			ChannelB: Sine(500, 1000),
			ChannelC: Sine(250, 500),
			ChannelD: Sine(100, 250),
		},
	}
}

// Calls returns the names of the driver methods invoked so far.
func (s *Simulated) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Simulated) record(op string) (Status, bool) {
	s.calls = append(s.calls, op)
	if st, ok := s.Fail[op]; ok && st != StatusOK {
		return st, true
	}
	return StatusOK, false
}

func (s *Simulated) OpenUnit(res Resolution) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("OpenUnit"); failed {
		return st
	}
	if s.open {
		return StatusMaxUnitsOpened
	}
	s.res = res
	s.open = true
	s.ranges = make(map[Channel]Range)
	s.enabled = make(map[Channel]bool)
	s.registered = make(map[Channel]int32)
	s.buffers = make(map[Channel][]int16)
	s.opened++
	if s.opened == 1 && s.OpenStatus != StatusOK {
		return s.OpenStatus
	}
	return StatusOK
}

func (s *Simulated) ChangePowerSource(state Status) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("ChangePowerSource"); failed {
		return st
	}
	if !state.PowerSourceRecoverable() {
		return StatusInvalidParameter
	}
	return StatusOK
}

func (s *Simulated) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

func (s *Simulated) SetChannel(ch Channel, enabled bool, _ Coupling, r Range, _ float32) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("SetChannel"); failed {
		return st
	}
	if !s.open {
		return StatusInvalidHandle
	}
	if ch < ChannelA || ch > ChannelD {
		return StatusInvalidChannel
	}
	if _, err := r.Millivolts(); err != nil {
		return StatusInvalidVoltageRange
	}
	s.ranges[ch] = r
	s.enabled[ch] = enabled
	return StatusOK
}

func (s *Simulated) maxADC() int16 {
	if s.res == Resolution8Bit {
		return 32512
	}
	return 32767
}

func (s *Simulated) MaximumValue() (int16, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("MaximumValue"); failed {
		return 0, st
	}
	if !s.open {
		return 0, StatusInvalidHandle
	}
	return s.maxADC(), StatusOK
}

func (s *Simulated) SetTriggerChannelPropertiesV2(props []TriggerChannelProperties, _ int16) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("SetTriggerChannelPropertiesV2"); failed {
		return st
	}
	if !s.open {
		return StatusInvalidHandle
	}
	for _, p := range props {
		if p.Channel < ChannelA || p.Channel > ChannelD {
			return StatusInvalidChannel
		}
	}
	return StatusOK
}

func (s *Simulated) SetTriggerChannelConditionsV2(conds []Condition, info ConditionsInfo) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("SetTriggerChannelConditionsV2"); failed {
		return st
	}
	if !s.open {
		return StatusInvalidHandle
	}
	if info&(ConditionsClear|ConditionsAdd) == 0 && len(conds) > 0 {
		return StatusInvalidParameter
	}
	return StatusOK
}

func (s *Simulated) SetTriggerChannelDirectionsV2(dirs []Direction) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("SetTriggerChannelDirectionsV2"); failed {
		return st
	}
	if !s.open {
		return StatusInvalidHandle
	}
	return StatusOK
}

// intervalNs implements the ps5000a timebase formula for the current
// resolution.
func (s *Simulated) intervalNs(tb uint32) (float64, bool) {
	switch s.res {
	case Resolution8Bit:
		if tb < 3 {
			return math.Pow(2, float64(tb)), true
		}
		return float64(tb-2) * 8, true
	case Resolution12Bit:
		if tb == 0 {
			return 0, false
		}
		if tb <= 3 {
			return math.Pow(2, float64(tb-1)) * 2, true
		}
		return float64(tb-3) * 16, true
	case Resolution14Bit, Resolution15Bit:
		if tb < 3 {
			return 0, false
		}
		if tb == 3 {
			return 8, true
		}
		return float64(tb-2) * 8, true
	default:
		if tb < 4 {
			return 0, false
		}
		if tb == 4 {
			return 16, true
		}
		return float64(tb-3) * 16, true
	}
}

func (s *Simulated) GetTimebase2(timebase uint32, samples int32, _ uint32) (float32, int32, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("GetTimebase2"); failed {
		return 0, 0, st
	}
	if !s.open {
		return 0, 0, StatusInvalidHandle
	}
	iv, ok := s.intervalNs(timebase)
	if !ok {
		return 0, 0, StatusInvalidTimebase
	}
	return float32(iv), samples, StatusOK
}

func (s *Simulated) RunBlock(pre, post int32, timebase uint32, _ uint32) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("RunBlock"); failed {
		return st
	}
	if !s.open {
		return StatusInvalidHandle
	}
	if _, ok := s.intervalNs(timebase); !ok {
		return StatusInvalidTimebase
	}
	if pre < 0 || post < 0 {
		return StatusInvalidParameter
	}
	s.pre, s.post, s.timebase = pre, post, timebase
	s.running = true
	s.polls = 0
	return StatusOK
}

func (s *Simulated) IsReady() (bool, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("IsReady"); failed {
		return false, st
	}
	if !s.running {
		return false, StatusOK
	}
	s.polls++
	return s.polls > s.ReadyAfter, StatusOK
}

func (s *Simulated) SetDataBuffers(ch Channel, length int32, _ uint32, _ RatioMode) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("SetDataBuffers"); failed {
		return st
	}
	if !s.open {
		return StatusInvalidHandle
	}
	if ch < ChannelA || ch > ChannelD {
		return StatusInvalidChannel
	}
	s.registered[ch] = length
	return StatusOK
}

func (s *Simulated) GetValues(start, samples, _ uint32, _ RatioMode, _ uint32) (uint32, int16, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("GetValues"); failed {
		return 0, 0, st
	}
	if !s.open || !s.running {
		return 0, 0, StatusInvalidHandle
	}
	n := samples
	if total := uint32(s.pre + s.post); n > total {
		n = total
	}
	if s.ShortRead != 0 && n > s.ShortRead {
		n = s.ShortRead
	}
	iv, _ := s.intervalNs(s.timebase)
	maxADC := s.maxADC()
	var overflow int16
	for ch, length := range s.registered {
		count := n
		if uint32(length) < count {
			count = uint32(length)
		}
		buf := make([]int16, count)
		wave := s.Signals[ch]
		for i := uint32(0); i < count && wave != nil; i++ {
			t := float64(start+i) * iv * 1e-9
			code, err := MillivoltsToADC(wave(t), s.ranges[ch], maxADC)
			if err != nil {
				break
			}
			if code == maxADC || code == -maxADC-1 {
				overflow |= 1 << uint(ch)
			}
			buf[i] = code
		}
		s.buffers[ch] = buf
	}
	return n, overflow, StatusOK
}

func (s *Simulated) Buffer(ch Channel) []int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int16(nil), s.buffers[ch]...)
}

func (s *Simulated) Stop() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("Stop"); failed {
		return st
	}
	s.running = false
	return StatusOK
}

func (s *Simulated) CloseUnit() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, failed := s.record("CloseUnit"); failed {
		return st
	}
	if !s.open {
		return StatusInvalidHandle
	}
	s.open = false
	s.running = false
	return StatusOK
}
