package transport

import (
	"context"
	"net"
	"sync"
)

// MockTransport is a test double for Transport interface.
//
// This mock records all Send() calls for verification in tests,
// enabling unit testing of the responder engine without real network sockets.
type MockTransport struct {
	mu        sync.Mutex
	sendCalls []SendCall
	closed    bool
	injected  chan injectedPacket
}

// SendCall records a single Send() invocation.
type SendCall struct {
	Packet []byte
	Dest   net.Addr
}

// NewMockTransport creates a new mock transport for testing.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		sendCalls: make([]SendCall, 0),
		injected:  make(chan injectedPacket, 16),
	}
}

// Send records the call for verification.
func (m *MockTransport) Send(_ context.Context, packet []byte, dest net.Addr) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Record the call
	m.sendCalls = append(m.sendCalls, SendCall{
		Packet: append([]byte(nil), packet...), // Copy to avoid aliasing
		Dest:   dest,
	})

	return nil
}

// Receive blocks until ctx is done, mirroring UDPv4Transport's blocking
// read-with-deadline behavior so the engine's poll loop doesn't spin.
// Tests that need to feed an inbound packet use InjectReceive instead.
func (m *MockTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case pkt := <-m.injected:
		return pkt.packet, pkt.addr, nil
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

// InjectReceive makes the next (or a future) Receive call return packet/addr
// as if it had arrived off the wire.
func (m *MockTransport) InjectReceive(packet []byte, addr net.Addr) {
	m.injected <- injectedPacket{packet: packet, addr: addr}
}

type injectedPacket struct {
	packet []byte
	addr   net.Addr
}

// Close marks the transport as closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// SendCalls returns all recorded Send() calls.
//
// This allows tests to verify:
// - Number of Send() calls
// - Packet contents
// - Destination addresses
func (m *MockTransport) SendCalls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Return a copy to avoid race conditions
	calls := make([]SendCall, len(m.sendCalls))
	copy(calls, m.sendCalls)
	return calls
}
