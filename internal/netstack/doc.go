// Package netstack implements the Ethernet/ARP/IPv4 demultiplexer, ARP
// cache, outgoing frame assembly, and bounded UDP receive queue that sit
// between a virtio-net-shaped transport and the protocol modules that own
// concrete DHCP/ICMP/TCP behavior.
//
// Wire-format encoding and decoding is delegated to
// gvisor.dev/gvisor/pkg/tcpip/header rather than hand-rolled byte slicing,
// the same dependency the project's own full network stack built on before
// this package was cut down to a skeleton.
//
// Concrete protocol handling beyond ARP and UDP datagram delivery is not
// this package's job. A transport protocol registers a FrameParser and
// receives demuxed, decapsulated payloads; it owns its own state machine,
// retransmission, and wire format.
package netstack

import "errors"

var (
	errFrameTooShort     = errors.New("netstack: frame shorter than its header")
	errNotIPv4           = errors.New("netstack: ethernet frame is not IPv4")
	errNotARP            = errors.New("netstack: ethernet frame is not ARP")
	errInvalidIPv4Header = errors.New("netstack: malformed IPv4 header")
	errInvalidARPHeader  = errors.New("netstack: malformed ARP packet")
)
