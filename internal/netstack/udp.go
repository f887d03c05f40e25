package netstack

import (
	"sync"

	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// udpQueueDepth is the fixed capacity of a UdpQueue. A guest driver that
// does not keep up with inbound datagrams loses the newest arrivals rather
// than the oldest, so a burst never evicts a datagram a caller may already
// be in the middle of reading.
const udpQueueDepth = 16

// UdpDatagram is one received UDP payload together with where it came
// from.
type UdpDatagram struct {
	SrcAddr tcpip.Address
	SrcPort uint16
	Payload []byte
}

// UdpQueue is a fixed-capacity FIFO of received datagrams for a single
// bound UDP port. On overflow the newest datagram is dropped and the queue
// is left unchanged.
type UdpQueue struct {
	mu      sync.Mutex
	entries []UdpDatagram
	head    int
	count   int
	dropped uint64
}

// NewUdpQueue returns an empty queue with the fixed 16-slot capacity.
func NewUdpQueue() *UdpQueue {
	return &UdpQueue{entries: make([]UdpDatagram, udpQueueDepth)}
}

// Enqueue appends a datagram, reporting false (and incrementing the drop
// counter) if the queue was already full.
func (q *UdpQueue) Enqueue(d UdpDatagram) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == len(q.entries) {
		q.dropped++
		return false
	}
	q.entries[(q.head+q.count)%len(q.entries)] = d
	q.count++
	return true
}

// Dequeue removes and returns the oldest datagram, if any.
func (q *UdpQueue) Dequeue() (UdpDatagram, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		return UdpDatagram{}, false
	}
	d := q.entries[q.head]
	q.entries[q.head] = UdpDatagram{}
	q.head = (q.head + 1) % len(q.entries)
	q.count--
	return d, true
}

// Len reports how many datagrams are currently queued.
func (q *UdpQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Dropped reports how many datagrams have been discarded for arriving
// while the queue was full.
func (q *UdpQueue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// ParseUDP decodes a UDP datagram from an IPv4 payload already isolated by
// ParseIPv4Frame, returning the source and destination ports and the
// application payload.
func ParseUDP(segment []byte) (srcPort, dstPort uint16, payload []byte, err error) {
	if len(segment) < header.UDPMinimumSize {
		return 0, 0, nil, errFrameTooShort
	}
	udp := header.UDP(segment)
	length := int(udp.Length())
	if length < header.UDPMinimumSize || length > len(segment) {
		return 0, 0, nil, errFrameTooShort
	}
	return udp.SourcePort(), udp.DestinationPort(), segment[header.UDPMinimumSize:length], nil
}

// BuildUDPSegment encodes a UDP header over payload, ready to be passed as
// the payload argument to BuildIPv4Frame with header.UDPProtocolNumber.
func BuildUDPSegment(srcPort, dstPort uint16, payload []byte) []byte {
	length := header.UDPMinimumSize + len(payload)
	segment := make([]byte, length)
	udp := header.UDP(segment)
	udp.Encode(&header.UDPFields{
		SrcPort: srcPort,
		DstPort: dstPort,
		Length:  uint16(length),
	})
	copy(segment[header.UDPMinimumSize:], payload)
	return segment
}
