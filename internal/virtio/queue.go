package virtio

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Descriptor flags (spec section 3, "Virtqueue").
const (
	descFNext  uint16 = 1
	descFWrite uint16 = 2
)

const descriptorSize = 16 // addr(8) + length(4) + flags(2) + next(2)

const endOfChain = uint16(0xffff)

// Descriptor mirrors one virtqueue descriptor table entry.
type Descriptor struct {
	Addr   uint64
	Length uint32
	Flags  uint16
	Next   uint16
}

func (d Descriptor) hasNext() bool { return d.Flags&descFNext != 0 }
func (d Descriptor) isWrite() bool { return d.Flags&descFWrite != 0 }

// Virtqueue is a driver-owned virtio queue: a descriptor table, an available
// ring (driver -> device) and a used ring (device -> driver), all backed by
// contiguous page-aligned physical memory (spec section 3).
//
// Each submission, allocation, free and completion call takes mu for its own
// duration; notification goes through Transport.NotifyQueue, which does not
// take mu. The block driver keeps a single outstanding request per queue by
// holding its own lock across a whole request, busy-poll included.
type Virtqueue struct {
	mem PhysicalMemory

	Index int
	Size  uint16

	DescTableAddr uint64
	AvailRingAddr uint64
	UsedRingAddr  uint64

	mu sync.Mutex

	freeHead  uint16
	freeCount uint16

	availIdx uint16 // next slot the driver will publish into
	usedIdx  uint16 // last used-ring index consumed by the driver

	notifyOffMultiplier uint32
	notifyOff           uint16
}

// NewVirtqueue allocates descriptor/avail/used regions (as a single
// physically-addressed block starting at base, which the caller must have
// obtained size-aligned from the kernel's page allocator) and threads the
// descriptor free list per spec section 4.2's queue setup algorithm.
func NewVirtqueue(mem PhysicalMemory, index int, size uint16, descBase, availBase, usedBase uint64) (*Virtqueue, error) {
	if size == 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("virtio: queue size %d is not a power of two", size)
	}
	q := &Virtqueue{
		mem:           mem,
		Index:         index,
		Size:          size,
		DescTableAddr: descBase,
		AvailRingAddr: availBase,
		UsedRingAddr:  usedBase,
	}
	if err := q.resetFreeList(); err != nil {
		return nil, err
	}
	return q, nil
}

// resetFreeList threads descriptor i's next field to i+1 for i < size-1; the
// last descriptor's next is the end-of-chain sentinel (spec section 4.2).
func (q *Virtqueue) resetFreeList() error {
	for i := uint16(0); i < q.Size; i++ {
		next := i + 1
		if i == q.Size-1 {
			next = endOfChain
		}
		if err := q.writeDescriptor(i, Descriptor{Next: next}); err != nil {
			return fmt.Errorf("virtio: init free list: %w", err)
		}
	}
	q.freeHead = 0
	q.freeCount = q.Size

	if err := q.writePhys16(q.AvailRingAddr, 0); err != nil { // avail.flags
		return err
	}
	if err := q.writePhys16(q.AvailRingAddr+2, 0); err != nil { // avail.idx
		return err
	}
	return q.writePhys16(q.UsedRingAddr+2, 0) // used.idx
}

// AllocateDescriptors unlinks k indices from the free head and returns the
// head index of the new chain (spec section 4.2, "allocate_descriptors(k)").
// Callers do not need to hold any lock; AllocateDescriptors takes the queue
// lock itself and releases it before returning.
func (q *Virtqueue) AllocateDescriptors(k int) (uint16, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.allocateDescriptorsLocked(k)
}

func (q *Virtqueue) allocateDescriptorsLocked(k int) (uint16, error) {
	if k <= 0 || uint16(k) > q.Size {
		return 0, fmt.Errorf("virtio: invalid descriptor count %d", k)
	}
	if uint16(k) > q.freeCount {
		return 0, ErrNoFreeDescriptors
	}
	head := q.freeHead
	cur := head
	for i := 0; i < k; i++ {
		d, err := q.readDescriptor(cur)
		if err != nil {
			return 0, err
		}
		if i == k-1 {
			q.freeHead = d.Next
			break
		}
		cur = d.Next
	}
	q.freeCount -= uint16(k)
	return head, nil
}

// FreeDescriptorChain walks next pointers starting at head until it finds a
// descriptor whose Next has no NEXT flag set by convention (the chain is
// rewound until Flags has no descFNext), relinking the whole chain onto the
// free list. It must be called with the found chain length known or with
// each descriptor's flags still valid (i.e. before it is reused), matching
// the invariant in spec 8.1: freeing a chain returns exactly the descriptors
// that were allocated for it.
func (q *Virtqueue) FreeDescriptorChain(head uint16) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.freeDescriptorChainLocked(head)
}

func (q *Virtqueue) freeDescriptorChainLocked(head uint16) (int, error) {
	count := 0
	idx := head
	tail := head
	for {
		d, err := q.readDescriptor(idx)
		if err != nil {
			return count, err
		}
		count++
		if !d.hasNext() {
			tail = idx
			break
		}
		tail = idx
		idx = d.Next
		if count > int(q.Size) {
			return count, ErrChainTooLong
		}
	}
	// tail.next now points at the current free head, re-threading the chain
	// back into the free list in one splice.
	tailDesc, err := q.readDescriptor(tail)
	if err != nil {
		return count, err
	}
	tailDesc.Next = q.freeHead
	tailDesc.Flags &^= descFNext
	if err := q.writeDescriptor(tail, tailDesc); err != nil {
		return count, err
	}
	q.freeHead = head
	q.freeCount += uint16(count)
	return count, nil
}

// SetDescriptor fills in one descriptor of a chain the caller has already
// allocated with AllocateDescriptors.
func (q *Virtqueue) SetDescriptor(index uint16, d Descriptor) error {
	return q.writeDescriptor(index, d)
}

// SubmitAvailable writes head into the available ring and bumps avail_idx
// with a release-store, per spec section 4.2's submission algorithm. The
// caller must separately call Transport.NotifyQueue after this returns.
// SubmitAvailable does not check the transport's status; NotifyQueue returns
// ErrNotDriverOk until the transport has reached DriverOK.
func (q *Virtqueue) SubmitAvailable(head uint16) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	ringOffset := q.AvailRingAddr + 4 + uint64(q.availIdx%q.Size)*2
	if err := q.writePhys16(ringOffset, head); err != nil {
		return fmt.Errorf("virtio: write avail ring: %w", err)
	}
	q.availIdx++
	// Release-store: publish the new index only after the descriptor head is
	// visible, per spec section 4.2's "Concurrency" note.
	if err := q.writePhys16(q.AvailRingAddr+2, q.availIdx); err != nil {
		return fmt.Errorf("virtio: publish avail idx: %w", err)
	}
	return nil
}

// HasUsedBuffers reports whether the device has completed at least one
// request not yet observed by the driver (spec section 4.2, "Completion").
func (q *Virtqueue) HasUsedBuffers() (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	devIdx, err := q.readPhys16(q.UsedRingAddr + 2)
	if err != nil {
		return false, err
	}
	return devIdx != q.usedIdx, nil
}

// UsedEntry is one completed request as reported by the device.
type UsedEntry struct {
	Head   uint16
	Length uint32
}

// PopUsed returns the next completed entry and advances the driver's used
// index (spec section 4.2). It does not free descriptors; callers decide
// when the chain is safe to return to the free list.
func (q *Virtqueue) PopUsed() (UsedEntry, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	devIdx, err := q.readPhys16(q.UsedRingAddr + 2) // acquire-load
	if err != nil {
		return UsedEntry{}, false, err
	}
	if devIdx == q.usedIdx {
		return UsedEntry{}, false, nil
	}
	elemOffset := q.UsedRingAddr + 4 + uint64(q.usedIdx%q.Size)*8
	var buf [8]byte
	if err := q.mem.ReadPhysAt(buf[:], elemOffset); err != nil {
		return UsedEntry{}, false, fmt.Errorf("virtio: read used ring: %w", err)
	}
	entry := UsedEntry{
		Head:   uint16(binary.LittleEndian.Uint32(buf[0:4])),
		Length: binary.LittleEndian.Uint32(buf[4:8]),
	}
	q.usedIdx++
	return entry, true, nil
}

func (q *Virtqueue) readDescriptor(idx uint16) (Descriptor, error) {
	if idx >= q.Size {
		return Descriptor{}, fmt.Errorf("virtio: descriptor index %d out of bounds (size %d)", idx, q.Size)
	}
	var buf [descriptorSize]byte
	if err := q.mem.ReadPhysAt(buf[:], q.DescTableAddr+uint64(idx)*descriptorSize); err != nil {
		return Descriptor{}, fmt.Errorf("virtio: read descriptor %d: %w", idx, err)
	}
	return Descriptor{
		Addr:   binary.LittleEndian.Uint64(buf[0:8]),
		Length: binary.LittleEndian.Uint32(buf[8:12]),
		Flags:  binary.LittleEndian.Uint16(buf[12:14]),
		Next:   binary.LittleEndian.Uint16(buf[14:16]),
	}, nil
}

func (q *Virtqueue) writeDescriptor(idx uint16, d Descriptor) error {
	if idx >= q.Size {
		return fmt.Errorf("virtio: descriptor index %d out of bounds (size %d)", idx, q.Size)
	}
	var buf [descriptorSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], d.Addr)
	binary.LittleEndian.PutUint32(buf[8:12], d.Length)
	binary.LittleEndian.PutUint16(buf[12:14], d.Flags)
	binary.LittleEndian.PutUint16(buf[14:16], d.Next)
	if err := q.mem.WritePhysAt(buf[:], q.DescTableAddr+uint64(idx)*descriptorSize); err != nil {
		return fmt.Errorf("virtio: write descriptor %d: %w", idx, err)
	}
	return nil
}

func (q *Virtqueue) readPhys16(addr uint64) (uint16, error) {
	var buf [2]byte
	if err := q.mem.ReadPhysAt(buf[:], addr); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (q *Virtqueue) writePhys16(addr uint64, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return q.mem.WritePhysAt(buf[:], addr)
}

// ReadPayload copies length bytes out of physical memory at addr; used by
// callers (e.g. the block driver) to pull a device-written buffer back into
// Go-owned memory after a completion.
func (q *Virtqueue) ReadPayload(addr uint64, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	if err := q.mem.ReadPhysAt(buf, addr); err != nil {
		return nil, fmt.Errorf("virtio: read payload: %w", err)
	}
	return buf, nil
}

// WritePayload copies data into physical memory at addr for the device to
// read via DMA.
func (q *Virtqueue) WritePayload(addr uint64, data []byte) error {
	if err := q.mem.WritePhysAt(data, addr); err != nil {
		return fmt.Errorf("virtio: write payload: %w", err)
	}
	return nil
}

// RegionSize returns the byte size a queue of the given N needs for its
// descriptor table, available ring and used ring respectively, each rounded
// up to PageSize as spec section 3 requires ("contiguous page-aligned
// regions").
func RegionSize(n uint16) (descBytes, availBytes, usedBytes uint64) {
	descBytes = alignUp(uint64(n)*descriptorSize, PageSize)
	availBytes = alignUp(4+uint64(n)*2+2, PageSize) // flags+idx, ring, used_event
	usedBytes = alignUp(4+uint64(n)*8+2, PageSize)  // flags+idx, ring, avail_event
	return
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}
