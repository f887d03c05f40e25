package virtio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
)

// CommonConfigIO is the narrow read/write surface the transport needs on the
// common configuration structure behind a modern MMIO BAR. This package
// provides no adapter for a legacy I/O BAR.
type CommonConfigIO interface {
	Read8(offset uint32) uint8
	Read16(offset uint32) uint16
	Read32(offset uint32) uint32
	Write8(offset uint32, v uint8)
	Write16(offset uint32, v uint16)
	Write32(offset uint32, v uint32)
}

// Transport drives one virtio device through the Reset -> Acknowledge ->
// Driver -> FeaturesOK -> DriverOK (-> Failed) state machine of spec section
// 4.2, owning the common configuration region, the per-queue structures and
// the notification path.
type Transport struct {
	common CommonConfigIO
	notifyBase uint64
	notifyOffMultiplier uint32

	mem PhysicalMemory

	status         DeviceStatus
	negotiated     uint64
	driverFeatures uint64

	queues []*Virtqueue

	log *slog.Logger
}

// NewTransport wires a transport to its discovered common/notify config
// regions. driverFeatures is the DDK-side DeviceFeatures constant from spec
// section 4.2; it is intersected with the device-offered features and the
// transport-mandatory subset during negotiation.
func NewTransport(common CommonConfigIO, mem PhysicalMemory, notifyBase uint64, notifyOffMultiplier uint32, driverFeatures uint64, log *slog.Logger) *Transport {
	if log == nil {
		log = slog.Default()
	}
	return &Transport{
		common:              common,
		mem:                 mem,
		notifyBase:          notifyBase,
		notifyOffMultiplier: notifyOffMultiplier,
		driverFeatures:      driverFeatures,
		status:              StatusReset,
		log:                 log,
	}
}

// Status returns the last status byte this transport wrote or observed.
func (t *Transport) Status() DeviceStatus { return t.status }

// NegotiatedFeatures returns the feature bitmap accepted by both sides.
func (t *Transport) NegotiatedFeatures() uint64 { return t.negotiated }

func (t *Transport) writeStatus(s DeviceStatus) {
	t.status = s
	t.common.Write8(CommonDeviceStatus, uint8(s))
}

// Initialize runs the full state machine: reset, acknowledge, driver,
// feature negotiation, FeaturesOK re-check, queue setup for each of
// numQueues queues, and finally DriverOK. It returns an error wrapping
// ErrFeaturesRejected (and leaves the transport in StatusFailed) if the
// device does not offer the required features or rejects FeaturesOK; no
// queue is created in that case.
func (t *Transport) Initialize(numQueues int, queueSizeFor func(idx int) uint16, allocQueueMem func(idx int, descBytes, availBytes, usedBytes uint64) (descAddr, availAddr, usedAddr uint64, err error)) error {
	t.writeStatus(StatusReset)
	t.writeStatus(StatusAcknowledge)
	t.writeStatus(StatusDriver)

	deviceFeatures := t.readDeviceFeatures()
	// The transport-mandatory subset must be present in what the device
	// offered; if not, negotiation cannot succeed.
	if deviceFeatures&coreRequiredFeatures != coreRequiredFeatures {
		t.fail()
		return fmt.Errorf("%w: device does not offer required features %#x", ErrFeaturesRejected, coreRequiredFeatures)
	}
	negotiated := (deviceFeatures & t.driverFeatures) | coreRequiredFeatures
	t.writeDriverFeatures(negotiated)
	t.negotiated = negotiated

	t.writeStatus(StatusFeaturesOK)
	readBack := DeviceStatus(t.common.Read8(CommonDeviceStatus))
	if readBack&StatusFeaturesOK == 0 {
		t.fail()
		return fmt.Errorf("%w: FeaturesOK not accepted", ErrFeaturesRejected)
	}

	t.queues = make([]*Virtqueue, numQueues)
	for i := 0; i < numQueues; i++ {
		q, err := t.setupQueue(i, queueSizeFor(i), allocQueueMem)
		if err != nil {
			t.queues = nil
			t.fail()
			return fmt.Errorf("virtio: setup queue %d: %w", i, err)
		}
		t.queues[i] = q
	}

	// spec section 9: DriverOk strictly-happens-before any submission. This
	// transport enforces that by only exposing queues (and accepting
	// submissions through them) after this point.
	t.writeStatus(StatusDriverOK)
	t.log.Debug("virtio transport initialized", "queues", numQueues, "features", fmt.Sprintf("%#x", t.negotiated))
	return nil
}

func (t *Transport) fail() {
	t.writeStatus(StatusFailed)
}

func (t *Transport) readDeviceFeatures() uint64 {
	t.common.Write32(CommonDeviceFeatureSelect, 0)
	low := t.common.Read32(CommonDeviceFeature)
	t.common.Write32(CommonDeviceFeatureSelect, 1)
	high := t.common.Read32(CommonDeviceFeature)
	return uint64(low) | uint64(high)<<32
}

func (t *Transport) writeDriverFeatures(features uint64) {
	t.common.Write32(CommonDriverFeatureSelect, 0)
	t.common.Write32(CommonDriverFeature, uint32(features))
	t.common.Write32(CommonDriverFeatureSelect, 1)
	t.common.Write32(CommonDriverFeature, uint32(features>>32))
}

func (t *Transport) setupQueue(index int, size uint16, allocQueueMem func(idx int, descBytes, availBytes, usedBytes uint64) (uint64, uint64, uint64, error)) (*Virtqueue, error) {
	t.common.Write16(CommonQueueSelect, uint16(index))
	maxSize := t.common.Read16(CommonQueueSize)
	if size == 0 || size > maxSize {
		size = maxSize
	}

	descBytes, availBytes, usedBytes := RegionSize(size)
	descAddr, availAddr, usedAddr, err := allocQueueMem(index, descBytes, availBytes, usedBytes)
	if err != nil {
		return nil, err
	}

	t.common.Write16(CommonQueueSize, size)
	t.common.Write32(CommonQueueDescLo, uint32(descAddr))
	t.common.Write32(CommonQueueDescHi, uint32(descAddr>>32))
	t.common.Write32(CommonQueueAvailLo, uint32(availAddr))
	t.common.Write32(CommonQueueAvailHi, uint32(availAddr>>32))
	t.common.Write32(CommonQueueUsedLo, uint32(usedAddr))
	t.common.Write32(CommonQueueUsedHi, uint32(usedAddr>>32))

	q, err := NewVirtqueue(t.mem, index, size, descAddr, availAddr, usedAddr)
	if err != nil {
		return nil, err
	}
	q.notifyOffMultiplier = t.notifyOffMultiplier
	q.notifyOff = t.common.Read16(CommonQueueNotifyOff)

	t.common.Write16(CommonQueueEnable, 1)
	return q, nil
}

// Queue returns the initialized virtqueue at index, or nil if Initialize has
// not yet run or index is out of range.
func (t *Transport) Queue(index int) *Virtqueue {
	if index < 0 || index >= len(t.queues) {
		return nil
	}
	return t.queues[index]
}

// NotifyQueue writes the queue index into the notify MMIO region at an
// offset computed from notify_off_multiplier and the queue's own
// notify_off, per spec section 4.2. The notify region is addressed through
// the same PhysicalMemory the transport uses for everything else, since on
// real hardware it is simply another MMIO range in the same address space.
// It refuses to notify unless the transport has reached DriverOK, enforcing
// the happens-before ordering from spec section 9.
func (t *Transport) NotifyQueue(q *Virtqueue) error {
	if t.status != StatusDriverOK {
		return ErrNotDriverOk
	}
	addr := t.notifyBase + uint64(q.notifyOff)*uint64(q.notifyOffMultiplier)
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(q.Index))
	if err := t.mem.WritePhysAt(buf[:], addr); err != nil {
		return fmt.Errorf("virtio: notify queue %d: %w", q.Index, err)
	}
	return nil
}

// Reset returns the device to the Reset state, per the virtio spec's
// device-reset sequence (writing 0 to the status byte).
func (t *Transport) Reset() {
	t.writeStatus(StatusReset)
	t.queues = nil
	t.negotiated = 0
}
