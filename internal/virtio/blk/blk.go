// Package blk implements the driver side of the virtio block device: request
// framing, descriptor chain construction and polling completion, layered on
// top of the transport core in internal/virtio.
package blk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ddkcore/kernel/internal/virtio"
)

// Request types (virtio-blk wire format).
const (
	typeIn    uint32 = 0 // read
	typeOut   uint32 = 1 // write
	typeFlush uint32 = 4
)

// Status byte values the device writes into the status descriptor.
const (
	StatusOK     uint8 = 0
	StatusIOErr  uint8 = 1
	StatusUnsupp uint8 = 2
)

// Feature bits specific to the block device class (spec section 4.3 /
// section 6), layered on top of the transport-mandatory subset negotiated by
// internal/virtio.
const (
	FeatureSizeMax uint64 = 1 << 1
	FeatureSegMax  uint64 = 1 << 2
	FeatureBlkSize uint64 = 1 << 6
	FeatureFlush   uint64 = 1 << 9
	FeatureRO      uint64 = 1 << 5
)

const sectorSize = 512

var (
	ErrReadOnly         = errors.New("virtio-blk: device is read-only")
	ErrOutOfRange       = errors.New("virtio-blk: request exceeds device capacity")
	ErrInvalidRequest   = errors.New("virtio-blk: invalid request parameters")
	ErrTimeout          = errors.New("virtio-blk: request timed out")
	ErrIO               = errors.New("virtio-blk: device reported an I/O error")
	ErrUnsupported      = errors.New("virtio-blk: device reported unsupported request")
	ErrUnknownStatus    = errors.New("virtio-blk: device returned an unrecognized status byte")
)

// reqHeader mirrors struct virtio_blk_req's fixed-size prefix: type(4) +
// reserved(4) + sector(8) = 16 bytes, device-readable.
type reqHeader struct {
	Type     uint32
	Reserved uint32
	Sector   uint64
}

func (h reqHeader) marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], h.Type)
	binary.LittleEndian.PutUint32(buf[4:8], h.Reserved)
	binary.LittleEndian.PutUint64(buf[8:16], h.Sector)
	return buf
}

// Device drives one virtio-blk queue: it constructs descriptor chains for
// read/write/flush requests, submits them, and polls for completion under a
// fixed iteration budget (spec section 4.3 and section 5's "no suspension
// points inside the virtio path").
type Device struct {
	transport *virtio.Transport
	queue     *virtio.Virtqueue

	mu sync.Mutex

	capacity uint64 // 512-byte sectors
	readOnly bool
	blockSize uint32

	// scratchBase is where this device's header/status scratch buffers live
	// in physical memory; data buffers are supplied by the caller.
	scratchBase uint64
	scratchNext uint64

	// PollBudget bounds how many times Device polls HasUsedBuffers before
	// giving up on a submitted request and returning ErrTimeout.
	PollBudget int
}

// NewDevice wires a Device to an already-initialized transport (DriverOK
// must already have been reached) and its single request queue, plus the
// decoded device configuration (capacity, block size, read-only flag) spec
// section 4.3 expects the caller to have read out of the device-specific
// config region before constructing requests.
func NewDevice(transport *virtio.Transport, queue *virtio.Virtqueue, capacitySectors uint64, blockSize uint32, readOnly bool, scratchBase uint64) *Device {
	if blockSize == 0 {
		blockSize = sectorSize
	}
	return &Device{
		transport:   transport,
		queue:       queue,
		capacity:    capacitySectors,
		blockSize:   blockSize,
		readOnly:    readOnly,
		scratchBase: scratchBase,
		scratchNext: scratchBase,
		PollBudget:  1 << 20,
	}
}

// Capacity returns the device's size in 512-byte sectors.
func (d *Device) Capacity() uint64 { return d.capacity }

// ReadOnly reports whether the device rejects writes.
func (d *Device) ReadOnly() bool { return d.readOnly }

func (d *Device) checkRange(startBlock, blockCount uint64) error {
	if blockCount < 1 {
		return fmt.Errorf("%w: block_count must be at least 1", ErrInvalidRequest)
	}
	if startBlock+blockCount > d.capacity {
		return fmt.Errorf("%w: [%d, %d) exceeds capacity %d", ErrOutOfRange, startBlock, startBlock+blockCount, d.capacity)
	}
	return nil
}

// Read fetches blockCount blocks of d.blockSize bytes starting at
// startBlock, returning the device-written data on success. It builds the
// three-descriptor chain of spec section 4.3: header (readable) -> data
// (writable) -> status (writable).
func (d *Device) Read(startBlock, blockCount uint64) ([]byte, error) {
	if err := d.checkRange(startBlock, blockCount); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	dataLen := blockCount * uint64(d.blockSize)
	hdrAddr := d.allocScratchLocked(16)
	dataAddr := d.allocScratchLocked(dataLen)
	statusAddr := d.allocScratchLocked(1)

	hdr := reqHeader{Type: typeIn, Sector: startBlock * uint64(d.blockSize) / sectorSize}
	if err := d.queue.WritePayload(hdrAddr, hdr.marshal()); err != nil {
		return nil, err
	}
	if err := d.queue.WritePayload(statusAddr, []byte{0xff}); err != nil {
		return nil, err
	}

	head, err := d.queue.AllocateDescriptors(3)
	if err != nil {
		return nil, err
	}
	const descFNext, descFWrite = 1, 2
	if err := d.queue.SetDescriptor(head, virtio.Descriptor{Addr: hdrAddr, Length: 16, Flags: descFNext, Next: head + 1}); err != nil {
		return nil, err
	}
	if err := d.queue.SetDescriptor(head+1, virtio.Descriptor{Addr: dataAddr, Length: uint32(dataLen), Flags: descFNext | descFWrite, Next: head + 2}); err != nil {
		return nil, err
	}
	if err := d.queue.SetDescriptor(head+2, virtio.Descriptor{Addr: statusAddr, Length: 1, Flags: descFWrite}); err != nil {
		return nil, err
	}

	status, err := d.submitAndPollLocked(head, statusAddr)
	d.queue.FreeDescriptorChain(head)
	if err != nil {
		return nil, err
	}
	if status != StatusOK {
		return nil, statusError(status)
	}

	data, err := d.queue.ReadPayload(dataAddr, uint32(dataLen))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write pushes data to startBlock..startBlock+blockCount using a
// device-readable header and data descriptor followed by a device-writable
// status descriptor (spec section 4.3). Rejects the request without
// touching the queue when the device is read-only.
func (d *Device) Write(startBlock uint64, data []byte) error {
	if d.readOnly {
		return ErrReadOnly
	}
	blockCount := uint64(len(data)) / uint64(d.blockSize)
	if uint64(len(data))%uint64(d.blockSize) != 0 {
		blockCount++
	}
	if err := d.checkRange(startBlock, blockCount); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	hdrAddr := d.allocScratchLocked(16)
	dataAddr := d.allocScratchLocked(uint64(len(data)))
	statusAddr := d.allocScratchLocked(1)

	hdr := reqHeader{Type: typeOut, Sector: startBlock * uint64(d.blockSize) / sectorSize}
	if err := d.queue.WritePayload(hdrAddr, hdr.marshal()); err != nil {
		return err
	}
	if err := d.queue.WritePayload(dataAddr, data); err != nil {
		return err
	}
	if err := d.queue.WritePayload(statusAddr, []byte{0xff}); err != nil {
		return err
	}

	head, err := d.queue.AllocateDescriptors(3)
	if err != nil {
		return err
	}
	const descFNext, descFWrite = 1, 2
	if err := d.queue.SetDescriptor(head, virtio.Descriptor{Addr: hdrAddr, Length: 16, Flags: descFNext, Next: head + 1}); err != nil {
		return err
	}
	if err := d.queue.SetDescriptor(head+1, virtio.Descriptor{Addr: dataAddr, Length: uint32(len(data)), Flags: descFNext, Next: head + 2}); err != nil {
		return err
	}
	if err := d.queue.SetDescriptor(head+2, virtio.Descriptor{Addr: statusAddr, Length: 1, Flags: descFWrite}); err != nil {
		return err
	}

	status, err := d.submitAndPollLocked(head, statusAddr)
	d.queue.FreeDescriptorChain(head)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return statusError(status)
	}
	return nil
}

// Flush issues a two-descriptor (header, status) request with zero data
// length, per spec section 4.3.
func (d *Device) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	hdrAddr := d.allocScratchLocked(16)
	statusAddr := d.allocScratchLocked(1)

	hdr := reqHeader{Type: typeFlush}
	if err := d.queue.WritePayload(hdrAddr, hdr.marshal()); err != nil {
		return err
	}
	if err := d.queue.WritePayload(statusAddr, []byte{0xff}); err != nil {
		return err
	}

	head, err := d.queue.AllocateDescriptors(2)
	if err != nil {
		return err
	}
	const descFNext, descFWrite = 1, 2
	if err := d.queue.SetDescriptor(head, virtio.Descriptor{Addr: hdrAddr, Length: 16, Flags: descFNext, Next: head + 1}); err != nil {
		return err
	}
	if err := d.queue.SetDescriptor(head+1, virtio.Descriptor{Addr: statusAddr, Length: 1, Flags: descFWrite}); err != nil {
		return err
	}

	status, err := d.submitAndPollLocked(head, statusAddr)
	d.queue.FreeDescriptorChain(head)
	if err != nil {
		return err
	}
	if status != StatusOK {
		return statusError(status)
	}
	return nil
}

// submitAndPollLocked submits head, busy-polls the queue for its completion
// under PollBudget iterations (spec section 5: no suspension points inside
// the virtio path), and returns the status byte the device wrote into
// statusAddr. On timeout the caller is responsible for freeing the chain.
func (d *Device) submitAndPollLocked(head uint16, statusAddr uint64) (uint8, error) {
	if err := d.queue.SubmitAvailable(head); err != nil {
		return 0, err
	}
	if err := d.transport.NotifyQueue(d.queue); err != nil {
		return 0, err
	}

	for i := 0; i < d.PollBudget; i++ {
		has, err := d.queue.HasUsedBuffers()
		if err != nil {
			return 0, err
		}
		if !has {
			continue
		}
		if _, ok, err := d.queue.PopUsed(); err != nil {
			return 0, err
		} else if !ok {
			continue
		}
		buf, err := d.queue.ReadPayload(statusAddr, 1)
		if err != nil {
			return 0, err
		}
		return buf[0], nil
	}
	return 0, ErrTimeout
}

func (d *Device) allocScratchLocked(n uint64) uint64 {
	addr := d.scratchNext
	d.scratchNext += alignUp(n, 8)
	return addr
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

func statusError(status uint8) error {
	switch status {
	case StatusIOErr:
		return ErrIO
	case StatusUnsupp:
		return ErrUnsupported
	default:
		return fmt.Errorf("%w: %#x", ErrUnknownStatus, status)
	}
}
