package records

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuafuller/beacon/internal/message"
	"github.com/joshuafuller/beacon/internal/protocol"
)

func TestNewA_SetsCacheFlushAndHostBoundTTL(t *testing.T) {
	name := message.MustName("host.local")
	rr, err := NewA(name, net.IPv4(192, 168, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, uint16(protocol.RecordTypeA), rr.Type)
	assert.True(t, rr.CacheFlush, "a unique host record sets the cache-flush bit")
	assert.Equal(t, uint32(protocol.TTLHostBound), rr.TTL)
}

func TestNewA_RejectsIPv6Address(t *testing.T) {
	name := message.MustName("host.local")
	_, err := NewA(name, net.ParseIP("::1"))
	assert.Error(t, err)
}

func TestNewPTR_SharedNoCacheFlush_GenericTTL(t *testing.T) {
	instance := message.MustName("Printer._ipp._tcp.local")
	srv := NewSRV(instance, message.MustName("host.local"), 631)
	typeName := message.MustName("_ipp._tcp.local")

	ptr := NewPTR(typeName, srv)
	assert.False(t, ptr.CacheFlush, "PTR records are shared across responders")
	assert.Equal(t, uint32(protocol.TTLGeneric), ptr.TTL)

	data, ok := ptr.Data.(message.PTRData)
	require.True(t, ok, "Data is %T, want message.PTRData", ptr.Data)
	assert.True(t, data.TargetName.Equal(srv.Name))
}

func TestNewSRV_PointsAtHostWithHostBoundTTL(t *testing.T) {
	instance := message.MustName("Printer._ipp._tcp.local")
	host := message.MustName("host.local")

	srv := NewSRV(instance, host, 631)
	data, ok := srv.Data.(message.SRVData)
	require.True(t, ok, "Data is %T, want message.SRVData", srv.Data)
	assert.Equal(t, uint16(631), data.Port)
	assert.True(t, data.Target.Equal(host))
	assert.Equal(t, uint32(protocol.TTLHostBound), srv.TTL)
}

func TestNewNSEC_AssertsOnlyGivenTypesExist(t *testing.T) {
	name := message.MustName("host.local")
	nsec := NewNSEC(name, uint16(protocol.RecordTypeA))

	data, ok := nsec.Data.(message.NSECData)
	require.True(t, ok, "Data is %T, want message.NSECData", nsec.Data)
	require.Len(t, data.Types, 1)
	assert.Equal(t, uint16(protocol.RecordTypeA), data.Types[0])
	assert.True(t, data.Next.Equal(name), "NSEC self-loops to the owner name")
}
