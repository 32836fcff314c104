package devsim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lus/hidpp-go/pkg/wire"
)

// ErrSimulatorClosed indicates the simulated transport was closed.
var ErrSimulatorClosed = errors.New("simulator closed")

// FeatureHandler answers one HID++2.0 function call. Returning a non-zero
// error code turns the reply into an error reply; the payload is ignored
// then.
type FeatureHandler func(function wire.U4, params []byte) ([]byte, wire.ErrorCode20)

type handlerKey struct {
	deviceIndex uint8
	featureID   uint16
}

// tableEntry is one row of a device's feature table.
type tableEntry struct {
	id       uint16
	typeBits uint8
	version  uint8
}

// Simulator implements the raw report transport over an in-memory Bolt
// receiver with paired devices. WriteReport dispatches to the simulated
// hardware, ReadReport delivers its replies and notifications.
type Simulator struct {
	profile Profile

	mu       sync.Mutex
	tables   map[uint8][]tableEntry
	handlers map[handlerKey]FeatureHandler

	out       chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

// New builds a simulator from a profile.
func New(profile Profile) *Simulator {
	s := &Simulator{
		profile:  profile,
		tables:   make(map[uint8][]tableEntry),
		handlers: make(map[handlerKey]FeatureHandler),
		out:      make(chan []byte, 64),
		closed:   make(chan struct{}),
	}

	for _, dev := range profile.Devices {
		if dev.Legacy {
			continue
		}
		table := []tableEntry{
			{id: 0x0000, version: 2},
			{id: 0x0001, version: 2},
		}
		for _, feat := range dev.Features {
			entry := tableEntry{id: feat.ID, version: feat.Version}
			if feat.Hidden {
				entry.typeBits |= 1 << 6
			}
			table = append(table, entry)
		}
		s.tables[dev.Index] = table
	}
	return s
}

// VendorID returns the receiver's USB vendor ID.
func (s *Simulator) VendorID() uint16 { return s.profile.VendorID }

// ProductID returns the receiver's USB product ID.
func (s *Simulator) ProductID() uint16 { return s.profile.ProductID }

// SupportsHidpp declares short and long report support, skipping the
// channel's active probe.
func (s *Simulator) SupportsHidpp() (short, long, ok bool) {
	return true, true, true
}

// HandleFeature installs a handler for one feature of one device. It
// replaces any builtin behavior for that feature.
func (s *Simulator) HandleFeature(deviceIndex uint8, featureID uint16, handler FeatureHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[handlerKey{deviceIndex, featureID}] = handler
}

// Emit queues an unsolicited HID++2.0 event of a device feature. The
// feature must appear in the device's feature table.
func (s *Simulator) Emit(deviceIndex uint8, featureID uint16, function wire.U4, params []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.featureIndex(deviceIndex, featureID)
	if !ok {
		return fmt.Errorf("device %#02x has no feature %#04x", deviceIndex, featureID)
	}

	msg := wire.Message{
		Kind:        wire.ReportLong,
		DeviceIndex: deviceIndex,
		SubID:       index,
		Address:     wire.CombineNibbles(function, 0),
	}
	copy(msg.Params[:], params)
	s.push(msg)
	return nil
}

// NotifyDisconnection queues a device disconnection notification.
func (s *Simulator) NotifyDisconnection(deviceIndex uint8, linkDropped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := wire.Message{
		Kind:        wire.ReportShort,
		DeviceIndex: deviceIndex,
		SubID:       wire.SubIDDeviceDisconnection,
	}
	if linkDropped {
		msg.Address = 0x02
	}
	s.push(msg)
}

// WriteReport dispatches one report to the simulated hardware.
func (s *Simulator) WriteReport(p []byte) (int, error) {
	select {
	case <-s.closed:
		return 0, ErrSimulatorClosed
	default:
	}

	msg, ok := wire.Parse(p)
	if !ok {
		return 0, fmt.Errorf("malformed report of %d bytes", len(p))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dispatch(msg)
	return len(p), nil
}

// ReadReport blocks until the simulated hardware produces the next report.
func (s *Simulator) ReadReport(p []byte) (int, error) {
	select {
	case data := <-s.out:
		return copy(p, data), nil
	case <-s.closed:
		return 0, ErrSimulatorClosed
	}
}

// Close terminates the transport. Blocked reads return ErrSimulatorClosed.
func (s *Simulator) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	return nil
}

// push queues one report for ReadReport. Callers hold mu.
func (s *Simulator) push(msg wire.Message) {
	select {
	case s.out <- msg.Encode():
	case <-s.closed:
	}
}

func (s *Simulator) featureIndex(deviceIndex uint8, featureID uint16) (uint8, bool) {
	for i, entry := range s.tables[deviceIndex] {
		if entry.id == featureID {
			return uint8(i), true
		}
	}
	return 0, false
}

func (s *Simulator) dispatch(msg wire.Message) {
	if msg.DeviceIndex == wire.ReceiverDeviceIndex {
		s.dispatchReceiver(msg)
		return
	}

	dev, ok := s.device(msg.DeviceIndex)
	if !ok {
		s.pushError10(msg, wire.Err10UnknownDevice)
		return
	}
	if dev.Legacy {
		s.pushError10(msg, wire.Err10InvalidSubID)
		return
	}
	s.dispatchFeature(dev, msg)
}

func (s *Simulator) device(index uint8) (DeviceProfile, bool) {
	for _, dev := range s.profile.Devices {
		if dev.Index == index {
			return dev, true
		}
	}
	return DeviceProfile{}, false
}

// dispatchReceiver handles traffic addressed to the receiver itself:
// HID++1.0 register access plus the root ping the channel probe sends.
func (s *Simulator) dispatchReceiver(msg wire.Message) {
	switch msg.SubID {
	case wire.SubIDGetRegister, wire.SubIDSetRegister, wire.SubIDGetLongRegister, wire.SubIDSetLongRegister:
		s.dispatchRegister(msg)
	case 0x00:
		// Root feature. Bolt receivers answer the version ping.
		if msg.Function() == 1 {
			s.pushReply(msg, []byte{0x04, 0x02, msg.Params[2]})
			return
		}
		s.pushError20(msg, wire.Err20InvalidFunctionID)
	default:
		s.pushError10(msg, wire.Err10InvalidSubID)
	}
}

func (s *Simulator) dispatchRegister(msg wire.Message) {
	switch {
	case msg.SubID == wire.SubIDGetRegister && msg.Address == 0x02:
		s.pushRegisterReply(msg, []byte{0x00, uint8(len(s.profile.Devices)), 0x00})

	case msg.SubID == wire.SubIDSetRegister && msg.Address == 0x02:
		if msg.Params[0] != 0x02 {
			s.pushError10(msg, wire.Err10InvalidValue)
			return
		}
		s.pushRegisterReply(msg, nil)
		for _, dev := range s.profile.Devices {
			s.pushConnectionNotification(dev)
		}

	case msg.SubID == wire.SubIDGetLongRegister && msg.Address == 0xfb:
		value := make([]byte, wire.LongParamLength)
		copy(value, s.profile.UniqueID)
		s.pushRegisterReply(msg, value)

	case msg.SubID == wire.SubIDGetLongRegister && msg.Address == 0xb5:
		s.dispatchReceiverInfo(msg)

	default:
		s.pushError10(msg, wire.Err10InvalidAddress)
	}
}

func (s *Simulator) dispatchReceiverInfo(msg wire.Message) {
	subReg := msg.Params[0]
	slot := subReg & 0x0f

	dev, ok := s.device(slot)
	if !ok {
		s.pushError10(msg, wire.Err10InvalidValue)
		return
	}

	value := make([]byte, wire.LongParamLength)
	value[0] = subReg

	switch subReg & 0xf0 {
	case 0x50:
		value[1] = dev.Kind
		value[2] = uint8(dev.WirelessPID)
		value[3] = uint8(dev.WirelessPID >> 8)
		copy(value[4:8], dev.UnitID[:])
	case 0x60:
		name := dev.Codename
		if len(name) > wire.LongParamLength-3 {
			name = name[:wire.LongParamLength-3]
		}
		value[1] = 0x01
		value[2] = uint8(3 + len(name))
		copy(value[3:], name)
	default:
		s.pushError10(msg, wire.Err10InvalidValue)
		return
	}
	s.pushRegisterReply(msg, value)
}

func (s *Simulator) pushConnectionNotification(dev DeviceProfile) {
	protocol := uint8(0x04)
	if dev.Legacy {
		protocol = 0x01
	}

	msg := wire.Message{
		Kind:        wire.ReportShort,
		DeviceIndex: dev.Index,
		SubID:       wire.SubIDDeviceConnection,
		Address:     protocol,
	}
	// Link established (bit 6 clear), software present.
	msg.Params[0] = dev.Kind&0x0f | 0x10
	msg.Params[1] = uint8(dev.WirelessPID)
	msg.Params[2] = uint8(dev.WirelessPID >> 8)
	s.push(msg)
}

func (s *Simulator) dispatchFeature(dev DeviceProfile, msg wire.Message) {
	table := s.tables[dev.Index]
	index := int(msg.FeatureIndex())
	if index >= len(table) {
		s.pushError20(msg, wire.Err20InvalidFeatureIndex)
		return
	}

	entry := table[index]
	if handler, ok := s.handlers[handlerKey{dev.Index, entry.id}]; ok {
		payload, code := handler(msg.Function(), msg.Payload())
		if code != wire.Err20NoError {
			s.pushError20(msg, code)
			return
		}
		s.pushReply(msg, payload)
		return
	}

	switch entry.id {
	case 0x0000:
		s.dispatchRoot(dev, msg)
	case 0x0001:
		s.dispatchFeatureSet(dev, msg)
	case 0x1004:
		s.dispatchBattery(dev, msg)
	default:
		s.pushReply(msg, nil)
	}
}

func (s *Simulator) dispatchRoot(dev DeviceProfile, msg wire.Message) {
	switch msg.Function() {
	case 0:
		id := uint16(msg.Params[0])<<8 | uint16(msg.Params[1])
		index, ok := s.featureIndex(dev.Index, id)
		if !ok {
			s.pushReply(msg, []byte{0x00, 0x00, 0x00})
			return
		}
		entry := s.tables[dev.Index][index]
		s.pushReply(msg, []byte{index, entry.typeBits, entry.version})
	case 1:
		s.pushReply(msg, []byte{dev.ProtocolVersion, dev.TargetSoftware, msg.Params[2]})
	default:
		s.pushError20(msg, wire.Err20InvalidFunctionID)
	}
}

func (s *Simulator) dispatchFeatureSet(dev DeviceProfile, msg wire.Message) {
	table := s.tables[dev.Index]
	switch msg.Function() {
	case 0:
		s.pushReply(msg, []byte{uint8(len(table) - 1)})
	case 1:
		index := int(msg.Params[0])
		if index < 1 || index >= len(table) {
			s.pushError20(msg, wire.Err20OutOfRange)
			return
		}
		entry := table[index]
		s.pushReply(msg, []byte{uint8(entry.id >> 8), uint8(entry.id), entry.typeBits, entry.version})
	default:
		s.pushError20(msg, wire.Err20InvalidFunctionID)
	}
}

func (s *Simulator) dispatchBattery(dev DeviceProfile, msg wire.Message) {
	battery := dev.Battery
	if battery == nil {
		s.pushError20(msg, wire.Err20HardwareError)
		return
	}

	switch msg.Function() {
	case 0:
		var flags uint8
		if battery.Rechargeable {
			flags |= 1 << 0
		}
		if battery.PercentageSupported {
			flags |= 1 << 1
		}
		s.pushReply(msg, []byte{battery.ReportedLevels, flags})
	case 1:
		s.pushReply(msg, []byte{battery.Percentage, battery.Level, battery.Status})
	default:
		s.pushError20(msg, wire.Err20InvalidFunctionID)
	}
}

// pushReply answers a HID++2.0 request, echoing its header.
func (s *Simulator) pushReply(msg wire.Message, payload []byte) {
	reply := wire.Message{
		Kind:        wire.ReportLong,
		DeviceIndex: msg.DeviceIndex,
		SubID:       msg.SubID,
		Address:     msg.Address,
	}
	copy(reply.Params[:], payload)
	s.push(reply)
}

// pushRegisterReply confirms a register access with the given value.
func (s *Simulator) pushRegisterReply(msg wire.Message, value []byte) {
	kind := wire.ReportShort
	if msg.SubID == wire.SubIDGetLongRegister || msg.SubID == wire.SubIDSetLongRegister {
		kind = wire.ReportLong
	}

	reply := wire.Message{
		Kind:        kind,
		DeviceIndex: msg.DeviceIndex,
		SubID:       msg.SubID,
		Address:     msg.Address,
	}
	copy(reply.Params[:], value)
	s.push(reply)
}

func (s *Simulator) pushError20(msg wire.Message, code wire.ErrorCode20) {
	s.push(wire.Message{
		Kind:        wire.ReportShort,
		DeviceIndex: msg.DeviceIndex,
		SubID:       wire.ErrorSubID20,
		Address:     msg.SubID,
		Params:      [wire.LongParamLength]byte{msg.Address, uint8(code)},
	})
}

func (s *Simulator) pushError10(msg wire.Message, code wire.ErrorCode10) {
	s.push(wire.Message{
		Kind:        wire.ReportShort,
		DeviceIndex: msg.DeviceIndex,
		SubID:       wire.ErrorSubID10,
		Address:     msg.SubID,
		Params:      [wire.LongParamLength]byte{msg.Address, uint8(code)},
	})
}
