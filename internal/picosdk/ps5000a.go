//go:build picosdk && cgo

package picosdk

/*
#cgo CFLAGS: -I/opt/picoscope/include
#cgo LDFLAGS: -L/opt/picoscope/lib -lps5000a
#include <stdlib.h>
#include <libps5000a/ps5000aApi.h>
*/
import "C"

import (
	"sync"
	"unsafe"
)

// PS5000A drives a real unit through libps5000a. Sample buffers are
// allocated in C memory because the driver keeps the pointers registered by
// SetDataBuffers until GetValues returns.
type PS5000A struct {
	mu      sync.Mutex
	handle  C.int16_t
	open    bool
	buffers map[Channel]*cbuffer
	counts  map[Channel]uint32
}

type cbuffer struct {
	max, min *C.int16_t
	length   int32
}

// NewPS5000A returns an unopened driver.
func NewPS5000A() (Driver, error) {
	return &PS5000A{buffers: make(map[Channel]*cbuffer), counts: make(map[Channel]uint32)}, nil
}

func (d *PS5000A) OpenUnit(res Resolution) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := Status(C.ps5000aOpenUnit(&d.handle, nil, C.PS5000A_DEVICE_RESOLUTION(res)))
	if st == StatusOK || st.PowerSourceRecoverable() {
		d.open = true
	}
	return st
}

func (d *PS5000A) ChangePowerSource(state Status) Status {
	return Status(C.ps5000aChangePowerSource(d.handle, C.PICO_STATUS(state)))
}

func (d *PS5000A) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *PS5000A) SetChannel(ch Channel, enabled bool, coupling Coupling, r Range, analogOffset float32) Status {
	var en C.int16_t
	if enabled {
		en = 1
	}
	return Status(C.ps5000aSetChannel(d.handle, C.PS5000A_CHANNEL(ch), en,
		C.PS5000A_COUPLING(coupling), C.PS5000A_RANGE(r), C.float(analogOffset)))
}

func (d *PS5000A) MaximumValue() (int16, Status) {
	var v C.int16_t
	st := Status(C.ps5000aMaximumValue(d.handle, &v))
	return int16(v), st
}

func (d *PS5000A) SetTriggerChannelPropertiesV2(props []TriggerChannelProperties, auxOutputEnable int16) Status {
	if len(props) == 0 {
		return Status(C.ps5000aSetTriggerChannelPropertiesV2(d.handle, nil, 0, C.int16_t(auxOutputEnable)))
	}
	cp := make([]C.PS5000A_TRIGGER_CHANNEL_PROPERTIES_V2, len(props))
	for i, p := range props {
		cp[i].thresholdUpper = C.int16_t(p.ThresholdUpper)
		cp[i].thresholdUpperHysteresis = C.uint16_t(p.ThresholdUpperHysteresis)
		cp[i].thresholdLower = C.int16_t(p.ThresholdLower)
		cp[i].thresholdLowerHysteresis = C.uint16_t(p.ThresholdLowerHysteresis)
		cp[i].channel = C.PS5000A_CHANNEL(p.Channel)
	}
	return Status(C.ps5000aSetTriggerChannelPropertiesV2(d.handle, &cp[0], C.int16_t(len(cp)), C.int16_t(auxOutputEnable)))
}

func (d *PS5000A) SetTriggerChannelConditionsV2(conds []Condition, info ConditionsInfo) Status {
	if len(conds) == 0 {
		return Status(C.ps5000aSetTriggerChannelConditionsV2(d.handle, nil, 0, C.PS5000A_CONDITIONS_INFO(info)))
	}
	cc := make([]C.PS5000A_CONDITION, len(conds))
	for i, c := range conds {
		cc[i].source = C.PS5000A_CHANNEL(c.Source)
		cc[i].condition = C.PS5000A_TRIGGER_STATE(c.State)
	}
	return Status(C.ps5000aSetTriggerChannelConditionsV2(d.handle, &cc[0], C.int16_t(len(cc)), C.PS5000A_CONDITIONS_INFO(info)))
}

func (d *PS5000A) SetTriggerChannelDirectionsV2(dirs []Direction) Status {
	if len(dirs) == 0 {
		return Status(C.ps5000aSetTriggerChannelDirectionsV2(d.handle, nil, 0))
	}
	cd := make([]C.PS5000A_DIRECTION, len(dirs))
	for i, dir := range dirs {
		cd[i].channel = C.PS5000A_CHANNEL(dir.Channel)
		cd[i].direction = C.PS5000A_THRESHOLD_DIRECTION(dir.Direction)
		cd[i].thresholdMode = C.PS5000A_THRESHOLD_MODE(dir.Mode)
	}
	return Status(C.ps5000aSetTriggerChannelDirectionsV2(d.handle, &cd[0], C.uint16_t(len(cd))))
}

func (d *PS5000A) GetTimebase2(timebase uint32, samples int32, segment uint32) (float32, int32, Status) {
	var interval C.float
	var maxSamples C.int32_t
	st := Status(C.ps5000aGetTimebase2(d.handle, C.uint32_t(timebase), C.int32_t(samples), &interval, &maxSamples, C.uint32_t(segment)))
	return float32(interval), int32(maxSamples), st
}

func (d *PS5000A) RunBlock(pre, post int32, timebase uint32, segment uint32) Status {
	return Status(C.ps5000aRunBlock(d.handle, C.int32_t(pre), C.int32_t(post), C.uint32_t(timebase), nil, C.uint32_t(segment), nil, nil))
}

func (d *PS5000A) IsReady() (bool, Status) {
	var ready C.int16_t
	st := Status(C.ps5000aIsReady(d.handle, &ready))
	return ready != 0, st
}

func (d *PS5000A) SetDataBuffers(ch Channel, length int32, segment uint32, mode RatioMode) Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.freeBuffer(ch)
	size := C.size_t(length) * C.size_t(unsafe.Sizeof(C.int16_t(0)))
	buf := &cbuffer{
		max:    (*C.int16_t)(C.malloc(size)),
		min:    (*C.int16_t)(C.malloc(size)),
		length: length,
	}
	d.buffers[ch] = buf
	return Status(C.ps5000aSetDataBuffers(d.handle, C.PS5000A_CHANNEL(ch), buf.max, buf.min, C.int32_t(length), C.uint32_t(segment), C.PS5000A_RATIO_MODE(mode)))
}

func (d *PS5000A) GetValues(start, samples, downSampleRatio uint32, mode RatioMode, segment uint32) (uint32, int16, Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := C.uint32_t(samples)
	var overflow C.int16_t
	st := Status(C.ps5000aGetValues(d.handle, C.uint32_t(start), &n, C.uint32_t(downSampleRatio), C.PS5000A_RATIO_MODE(mode), C.uint32_t(segment), &overflow))
	for ch := range d.buffers {
		d.counts[ch] = uint32(n)
	}
	return uint32(n), int16(overflow), st
}

func (d *PS5000A) Buffer(ch Channel) []int16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.buffers[ch]
	if !ok {
		return nil
	}
	n := d.counts[ch]
	if n > uint32(buf.length) {
		n = uint32(buf.length)
	}
	return append([]int16(nil), unsafe.Slice((*int16)(unsafe.Pointer(buf.max)), n)...)
}

func (d *PS5000A) Stop() Status {
	return Status(C.ps5000aStop(d.handle))
}

func (d *PS5000A) CloseUnit() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := Status(C.ps5000aCloseUnit(d.handle))
	for ch := range d.buffers {
		d.freeBuffer(ch)
	}
	d.open = false
	return st
}

func (d *PS5000A) freeBuffer(ch Channel) {
	if buf, ok := d.buffers[ch]; ok {
		C.free(unsafe.Pointer(buf.max))
		C.free(unsafe.Pointer(buf.min))
		delete(d.buffers, ch)
		delete(d.counts, ch)
	}
}
