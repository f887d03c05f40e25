package netstack

import (
	"sync"

	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// FrameParser is the contract an out-of-scope transport protocol module
// (ICMP, TCP, DHCP) implements to receive decapsulated IPv4 payloads for a
// protocol number it has registered for. The demultiplexer owns framing
// and demux only; everything past that is the collaborator's state
// machine.
type FrameParser interface {
	ParseFrame(srcMAC tcpip.LinkAddress, srcIP, dstIP tcpip.Address, payload []byte) error
}

// Demultiplexer routes inbound Ethernet frames to the ARP cache, to bound
// UDP receive queues, or to a registered FrameParser for any other IPv4
// transport protocol. It never builds or sends a reply itself; callers
// decide when BuildARPReply or BuildIPv4Frame is warranted from the state
// this type exposes.
type Demultiplexer struct {
	arp *Cache

	mu         sync.RWMutex
	udpQueues  map[uint16]*UdpQueue
	transports map[uint8]FrameParser
}

// NewDemultiplexer returns a demultiplexer backed by the given ARP cache.
func NewDemultiplexer(arp *Cache) *Demultiplexer {
	return &Demultiplexer{
		arp:        arp,
		udpQueues:  make(map[uint16]*UdpQueue),
		transports: make(map[uint8]FrameParser),
	}
}

// BindUDP registers and returns the receive queue for port, creating it if
// this is the first bind.
func (d *Demultiplexer) BindUDP(port uint16) *UdpQueue {
	d.mu.Lock()
	defer d.mu.Unlock()
	if q, ok := d.udpQueues[port]; ok {
		return q
	}
	q := NewUdpQueue()
	d.udpQueues[port] = q
	return q
}

// UnbindUDP removes a previously bound UDP receive queue.
func (d *Demultiplexer) UnbindUDP(port uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.udpQueues, port)
}

// RegisterTransport wires a FrameParser to receive IPv4 payloads carrying
// the given protocol number (e.g. header.ICMPv4ProtocolNumber).
func (d *Demultiplexer) RegisterTransport(proto uint8, parser FrameParser) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transports[proto] = parser
}

// Dispatch decodes frame and routes it: ARP updates the cache, IPv4/UDP
// enqueues onto the bound port's queue (newest-drop on overflow), and any
// other IPv4 protocol number is handed to its registered FrameParser, if
// one is registered. Unrecognized EtherTypes and unrouted IPv4 protocols
// are silently dropped, matching how a real NIC driver discards frames it
// has no listener for.
func (d *Demultiplexer) Dispatch(frame []byte) error {
	if len(frame) < header.EthernetMinimumSize {
		return errFrameTooShort
	}
	eth := header.Ethernet(frame)

	switch eth.Type() {
	case header.ARPProtocolNumber:
		return d.dispatchARP(frame)
	case header.IPv4ProtocolNumber:
		return d.dispatchIPv4(frame, eth.SourceAddress())
	default:
		return nil
	}
}

func (d *Demultiplexer) dispatchARP(frame []byte) error {
	_, senderMAC, senderIP, _, _, err := ParseARP(frame)
	if err != nil {
		return err
	}
	d.arp.Insert(senderIP, senderMAC)
	return nil
}

func (d *Demultiplexer) dispatchIPv4(frame []byte, srcMAC tcpip.LinkAddress) error {
	src, dst, proto, payload, err := ParseIPv4Frame(frame)
	if err != nil {
		return err
	}
	d.arp.Insert(src, srcMAC)

	if proto == uint8(header.UDPProtocolNumber) {
		srcPort, dstPort, body, err := ParseUDP(payload)
		if err != nil {
			return err
		}
		d.mu.RLock()
		q, ok := d.udpQueues[dstPort]
		d.mu.RUnlock()
		if !ok {
			return nil
		}
		q.Enqueue(UdpDatagram{SrcAddr: src, SrcPort: srcPort, Payload: append([]byte(nil), body...)})
		return nil
	}

	d.mu.RLock()
	parser, ok := d.transports[proto]
	d.mu.RUnlock()
	if !ok {
		return nil
	}
	return parser.ParseFrame(srcMAC, src, dst, payload)
}
