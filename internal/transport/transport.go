// Package transport provides the network transport abstraction used by the
// responder engine to send and receive mDNS packets.
package transport

import (
	"context"
	"net"
)

// Transport abstracts the UDP multicast socket the engine reads and writes.
//
// Implementations:
//   - UDPv4Transport: production IPv4 multicast transport.
//   - MockTransport: test double used by engine and responder tests.
type Transport interface {
	// Send transmits a packet to dest. A nil dest means the mDNS multicast
	// group (224.0.0.251:5353); a non-nil dest sends a unicast reply.
	Send(ctx context.Context, packet []byte, dest net.Addr) error

	// Receive waits for an incoming packet, respecting ctx cancellation and
	// deadline.
	Receive(ctx context.Context) (packet []byte, srcAddr net.Addr, err error)

	// Close releases the underlying socket.
	Close() error
}
