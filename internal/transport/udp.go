package transport

import (
	"context"
	"fmt"
	"net"

	"golang.org/x/net/ipv4"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// UDPv4Transport is the production IPv4 multicast transport, bound to the
// mDNS group and port: SO_REUSEADDR/SO_REUSEPORT, bind 0.0.0.0:5353,
// IP_MULTICAST_IF on the caller-chosen host address, IP_MULTICAST_TTL=255,
// IP_ADD_MEMBERSHIP on 224.0.0.251, IP_MULTICAST_LOOP enabled.
type UDPv4Transport struct {
	conn  *net.UDPConn
	pconn *ipv4.PacketConn
	group *net.UDPAddr
}

// NewUDPv4Transport opens the mDNS multicast socket bound to hostAddr's
// interface. hostAddr identifies which local interface to join the
// multicast group on and to set as IP_MULTICAST_IF; choosing that address is
// the caller's responsibility (interface enumeration is out of scope here).
func NewUDPv4Transport(hostAddr net.IP) (*UDPv4Transport, error) {
	iface, err := interfaceForAddr(hostAddr)
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "resolve interface",
			Err:       err,
			Details:   fmt.Sprintf("no local interface owns address %s", hostAddr),
		}
	}

	lc := net.ListenConfig{Control: PlatformControl}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf("0.0.0.0:%d", protocol.Port))
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "bind socket",
			Err:       err,
			Details:   fmt.Sprintf("failed to bind 0.0.0.0:%d", protocol.Port),
		}
	}
	conn := pc.(*net.UDPConn)

	pconn := ipv4.NewPacketConn(conn)

	group := protocol.MulticastGroupIPv4()
	if err := pconn.JoinGroup(iface, group); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{
			Operation: "join multicast group",
			Err:       err,
			Details:   fmt.Sprintf("failed to join %s on %s", group.IP, iface.Name),
		}
	}
	if err := pconn.SetMulticastInterface(iface); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{Operation: "set multicast interface", Err: err}
	}
	if err := pconn.SetMulticastTTL(255); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{Operation: "set multicast ttl", Err: err}
	}
	if err := pconn.SetMulticastLoopback(true); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{Operation: "set multicast loopback", Err: err}
	}

	return &UDPv4Transport{conn: conn, pconn: pconn, group: group}, nil
}

// interfaceForAddr finds the local interface that has addr assigned.
func interfaceForAddr(addr net.IP) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ipnet.IP.Equal(addr) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, fmt.Errorf("no interface has address %s", addr)
}

// Send transmits packet to dest, or to the mDNS multicast group if dest is nil.
func (t *UDPv4Transport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return &errors.NetworkError{Operation: "send", Err: ctx.Err(), Details: "context canceled before send"}
	default:
	}

	target := dest
	if target == nil {
		target = t.group
	}

	n, err := t.conn.WriteTo(packet, target)
	if err != nil {
		return &errors.NetworkError{
			Operation: "send",
			Err:       err,
			Details:   fmt.Sprintf("failed to send %d bytes to %s", len(packet), target),
		}
	}
	if n != len(packet) {
		return &errors.NetworkError{
			Operation: "send",
			Err:       fmt.Errorf("partial write: %d/%d bytes", n, len(packet)),
		}
	}
	return nil
}

// Receive waits for an incoming packet, respecting ctx cancellation/deadline.
func (t *UDPv4Transport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, &errors.NetworkError{Operation: "receive", Err: ctx.Err(), Details: "context canceled before receive"}
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, &errors.NetworkError{Operation: "set read deadline", Err: err}
		}
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buffer := *bufPtr

	n, srcAddr, err := t.conn.ReadFrom(buffer)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, &errors.NetworkError{Operation: "receive", Err: err, Details: "timeout"}
		}
		return nil, nil, &errors.NetworkError{Operation: "receive", Err: err, Details: "failed to read from socket"}
	}

	result := make([]byte, n)
	copy(result, buffer[:n])
	return result, srcAddr, nil
}

// Close releases the socket.
func (t *UDPv4Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return &errors.NetworkError{Operation: "close", Err: err, Details: "failed to close UDP connection"}
	}
	return nil
}

var _ Transport = (*UDPv4Transport)(nil)
