package netstack

import (
	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// BuildARPReply assembles a complete Ethernet frame carrying an ARP reply
// asserting that targetIP owns targetMAC, addressed to senderMAC/senderIP.
func BuildARPReply(senderMAC tcpip.LinkAddress, senderIP tcpip.Address, targetMAC tcpip.LinkAddress, targetIP tcpip.Address) []byte {
	frame := make([]byte, header.EthernetMinimumSize+header.ARPSize)

	eth := header.Ethernet(frame[:header.EthernetMinimumSize])
	eth.Encode(&header.EthernetFields{
		SrcAddr: targetMAC,
		DstAddr: senderMAC,
		Type:    header.ARPProtocolNumber,
	})

	arp := header.ARP(frame[header.EthernetMinimumSize:])
	arp.SetIPv4OverEthernetAddresses(targetMAC, targetIP, senderMAC, senderIP)
	arp.SetOp(header.ARPReply)

	return frame
}

// ParseARP decodes an Ethernet frame known to carry ARP, returning the
// operation and the four addresses it carries.
func ParseARP(frame []byte) (op header.ARPOp, senderMAC tcpip.LinkAddress, senderIP tcpip.Address, targetMAC tcpip.LinkAddress, targetIP tcpip.Address, err error) {
	if len(frame) < header.EthernetMinimumSize+header.ARPSize {
		return 0, "", tcpip.Address{}, "", tcpip.Address{}, errFrameTooShort
	}
	eth := header.Ethernet(frame)
	if eth.Type() != header.ARPProtocolNumber {
		return 0, "", tcpip.Address{}, "", tcpip.Address{}, errNotARP
	}

	arp := header.ARP(frame[header.EthernetMinimumSize:])
	if !arp.IsValid() {
		return 0, "", tcpip.Address{}, "", tcpip.Address{}, errInvalidARPHeader
	}

	return arp.Op(),
		tcpip.LinkAddress(string(arp.HardwareAddressSender())),
		tcpip.AddrFromSlice(arp.ProtocolAddressSender()),
		tcpip.LinkAddress(string(arp.HardwareAddressTarget())),
		tcpip.AddrFromSlice(arp.ProtocolAddressTarget()),
		nil
}

// BuildIPv4Frame assembles a complete Ethernet frame carrying an IPv4
// datagram with the given transport protocol number and payload.
func BuildIPv4Frame(srcMAC, dstMAC tcpip.LinkAddress, srcIP, dstIP tcpip.Address, proto tcpip.TransportProtocolNumber, payload []byte) []byte {
	totalLen := header.IPv4MinimumSize + len(payload)
	frame := make([]byte, header.EthernetMinimumSize+totalLen)

	eth := header.Ethernet(frame[:header.EthernetMinimumSize])
	eth.Encode(&header.EthernetFields{
		SrcAddr: srcMAC,
		DstAddr: dstMAC,
		Type:    header.IPv4ProtocolNumber,
	})

	ip := header.IPv4(frame[header.EthernetMinimumSize:])
	ip.Encode(&header.IPv4Fields{
		TotalLength: uint16(totalLen),
		TTL:         64,
		Protocol:    uint8(proto),
		SrcAddr:     srcIP,
		DstAddr:     dstIP,
	})
	ip.SetChecksum(0)
	ip.SetChecksum(^ip.CalculateChecksum())

	copy(frame[header.EthernetMinimumSize+header.IPv4MinimumSize:], payload)
	return frame
}

// ParseIPv4Frame decodes an Ethernet frame known to carry IPv4, returning
// the source/destination addresses, the transport protocol number, and the
// transport-layer payload (header length and total length both honored, so
// any Ethernet padding trailing the datagram is excluded).
func ParseIPv4Frame(frame []byte) (src, dst tcpip.Address, proto uint8, payload []byte, err error) {
	if len(frame) < header.EthernetMinimumSize+header.IPv4MinimumSize {
		return tcpip.Address{}, tcpip.Address{}, 0, nil, errFrameTooShort
	}
	eth := header.Ethernet(frame)
	if eth.Type() != header.IPv4ProtocolNumber {
		return tcpip.Address{}, tcpip.Address{}, 0, nil, errNotIPv4
	}

	body := frame[header.EthernetMinimumSize:]
	if !header.IPv4(body).IsValid(len(body)) {
		return tcpip.Address{}, tcpip.Address{}, 0, nil, errInvalidIPv4Header
	}
	ip := header.IPv4(body)

	hlen := int(ip.HeaderLength())
	total := int(ip.TotalLength())
	if hlen > total || total > len(body) {
		return tcpip.Address{}, tcpip.Address{}, 0, nil, errInvalidIPv4Header
	}

	return ip.SourceAddress(), ip.DestinationAddress(), ip.Protocol(), body[hlen:total], nil
}
