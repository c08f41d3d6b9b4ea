// Package responder implements the mDNS/DNS-SD responder engine per RFC
// 6762/6763: an in-memory record store, a receive/reply loop with
// known-answer suppression and additional-record closure, and an
// announce/withdraw scheduler driven by service registration.
package responder

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/logging"
	"github.com/joshuafuller/beacon/internal/message"
	"github.com/joshuafuller/beacon/internal/protocol"
	"github.com/joshuafuller/beacon/internal/records"
	internalresponder "github.com/joshuafuller/beacon/internal/responder"
	"github.com/joshuafuller/beacon/internal/security"
	"github.com/joshuafuller/beacon/internal/state"
	"github.com/joshuafuller/beacon/internal/transport"
	"sync"
)

// metaServiceName is the RFC 6763 §9 meta-query name under which every
// registered service type's PTR is enumerable.
const metaServiceName = "_services._dns-sd._udp.local"

const (
	defaultWakeupBuffer    = 8
	defaultPollInterval    = 250 * time.Millisecond
	defaultSendTimeout     = 2 * time.Second
	defaultRateThreshold   = 100
	defaultRateCooldown    = 60 * time.Second
	defaultRateMaxEntries  = 10000
)

// ServiceHandle identifies a registered service instance. It is returned by
// RegisterService and consumed by RemoveService; using it after removal is
// a caller error. The handle carries no liveness flag of its own.
type ServiceHandle struct {
	ID string

	entries []*message.ResourceRecord
	typePTR *message.ResourceRecord
}

// Engine is the responder's single worker: it owns the record store and is
// the sole mutator of it. Every exported method other than the worker loop
// itself acquires mu before touching engine state.
type Engine struct {
	mu sync.Mutex

	store    *records.Store
	throttle *records.Throttle

	announce []*message.ResourceRecord // FIFO of PTR entries awaiting announcement
	services []*message.ResourceRecord // PTR entries currently published
	leave    []*message.ResourceRecord // FIFO of PTR entries pending goodbye

	hostname    message.Name
	hostnameSet bool

	transport    transport.Transport
	logger       zerolog.Logger
	rateLimiter  *security.RateLimiter
	sourceFilter *security.SourceFilter
	pollInterval time.Duration
	sendTimeout  time.Duration

	run    *state.RunFlag
	wakeup chan struct{}
	done   chan struct{}
}

// New opens the mDNS socket on hostAddr's interface and starts the engine's
// worker goroutine. hostAddr identifies which local interface to bind and
// join the multicast group on; interface enumeration to choose that
// address is the caller's responsibility.
func New(ctx context.Context, hostAddr net.IP, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:        records.NewStore(),
		throttle:     records.NewThrottle(),
		run:          state.NewRunFlag(),
		wakeup:       make(chan struct{}, defaultWakeupBuffer),
		done:         make(chan struct{}),
		logger:       logging.New("responder", false),
		pollInterval: defaultPollInterval,
		sendTimeout:  defaultSendTimeout,
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.transport == nil {
		t, err := transport.NewUDPv4Transport(hostAddr)
		if err != nil {
			return nil, err
		}
		e.transport = t
	}

	if e.sourceFilter == nil {
		if iface, err := interfaceForAddr(hostAddr); err == nil {
			if sf, sfErr := security.NewSourceFilter(*iface); sfErr == nil {
				e.sourceFilter = sf
			}
		}
	}

	if e.rateLimiter == nil {
		e.rateLimiter = security.NewRateLimiter(defaultRateThreshold, defaultRateCooldown, defaultRateMaxEntries)
	}

	go e.loop(ctx)

	return e, nil
}

// interfaceForAddr finds the local interface that has addr assigned,
// mirroring internal/transport's own resolution so the engine's source
// filter watches the same interface the socket is bound to.
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
			if ok && ipnet.IP.Equal(addr) {
				return &ifaces[i], nil
			}
		}
	}
	return nil, &errors.NetworkError{Operation: "resolve interface", Err: err, Details: "no interface owns address"}
}

// SetHostname adds the host's A record (and a companion NSEC advertising
// the address family), settable at most once per engine lifetime.
//
// TODO: the correct behavior if the host's IP changes after SetHostname is
// called is unspecified; this rejects a second call rather than guessing.
func (e *Engine) SetHostname(name string, addr net.IP) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hostnameSet {
		return &errors.ValidationError{Field: "hostname", Value: name, Message: "hostname already set; re-setting is not supported"}
	}

	hostName, err := message.NewName(name)
	if err != nil {
		return err
	}
	a, err := records.NewA(hostName, addr)
	if err != nil {
		return err
	}
	e.store.Add(a)
	e.store.Add(records.NewNSEC(hostName, uint16(protocol.RecordTypeA)))

	e.hostname = hostName
	e.hostnameSet = true
	return nil
}

// SetHostnameV6 is SetHostname for an IPv6 address, adding an AAAA record
// in place of an A record. The transport remains IPv4-only; this only
// publishes the record, it does not open an IPv6 socket.
func (e *Engine) SetHostnameV6(name string, addr net.IP) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hostnameSet {
		return &errors.ValidationError{Field: "hostname", Value: name, Message: "hostname already set; re-setting is not supported"}
	}

	hostName, err := message.NewName(name)
	if err != nil {
		return err
	}
	aaaa, err := records.NewAAAA(hostName, addr)
	if err != nil {
		return err
	}
	e.store.Add(aaaa)
	e.store.Add(records.NewNSEC(hostName, uint16(protocol.RecordTypeAAAA)))

	e.hostname = hostName
	e.hostnameSet = true
	return nil
}

// RegisterService publishes a service instance: a TXT record (only if txt
// is non-empty), an SRV pointing at the engine's hostname, a PTR at
// serviceType pointing to the SRV, and a meta-PTR at
// _services._dns-sd._udp.local pointing to the type PTR. The type PTR is
// queued for announcement and tracked as currently published. Requires
// SetHostname (or SetHostnameV6) to have been called first.
func (e *Engine) RegisterService(svc *Service) (*ServiceHandle, error) {
	if svc == nil {
		return nil, &errors.ValidationError{Field: "service", Message: "service cannot be nil"}
	}
	if err := svc.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hostnameSet {
		return nil, &errors.ValidationError{Field: "hostname", Message: "RegisterService requires SetHostname to be called first"}
	}

	instanceName, err := message.NewNameLoose(svc.InstanceName + "." + svc.ServiceType)
	if err != nil {
		return nil, err
	}
	typeName, err := message.NewName(svc.ServiceType)
	if err != nil {
		return nil, err
	}

	srv := records.NewSRV(instanceName, e.hostname, uint16(svc.Port))
	e.store.Add(srv)
	entries := []*message.ResourceRecord{srv}

	if len(svc.TXTRecords) > 0 {
		txt := records.NewTXT(instanceName, svc.TXTRecords)
		e.store.Add(txt)
		entries = append(entries, txt)
	}

	ptr := records.NewPTR(typeName, srv)
	e.store.Add(ptr)
	entries = append(entries, ptr)

	metaName := message.MustName(metaServiceName)
	metaPTR := records.NewPTR(metaName, ptr)
	e.store.Add(metaPTR)
	entries = append(entries, metaPTR)

	e.announce = append(e.announce, ptr)
	e.services = append(e.services, ptr)
	e.wake()

	return &ServiceHandle{ID: uuid.NewString(), entries: entries, typePTR: ptr}, nil
}

// RemoveService unlinks every entry the handle owns from the store
// (destroying non-PTR entries immediately) and queues the type PTR for a
// goodbye multicast; the worker removes it from the store once the
// goodbye is sent.
func (e *Engine) RemoveService(handle *ServiceHandle) error {
	if handle == nil {
		return &errors.ValidationError{Field: "handle", Message: "handle cannot be nil"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, entry := range handle.entries {
		if entry == handle.typePTR {
			continue
		}
		e.store.Remove(entry)
	}

	ptr := handle.typePTR
	if meta := e.store.RemoveReferrer(ptr); meta != nil {
		e.store.Remove(meta)
	}
	e.announce = removeEntry(e.announce, ptr)
	e.services = removeEntry(e.services, ptr)
	e.leave = append(e.leave, ptr)
	e.wake()

	return nil
}

// ServiceTypes returns the set of currently published service type names,
// supporting RFC 6763 §9 legacy browsing independent of a wire query.
func (e *Engine) ServiceTypes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := map[string]bool{}
	var types []string
	for _, ptr := range e.services {
		name := ptr.Name.String()
		if !seen[name] {
			seen[name] = true
			types = append(types, name)
		}
	}
	return types
}

// Stop requests shutdown: the worker sends a final goodbye burst for every
// currently published service, closes the transport, and exits. Stop
// blocks until that has happened. A second call is a no-op.
func (e *Engine) Stop() {
	if !e.run.RequestStop() {
		return
	}
	e.wake()
	<-e.done
}

func (e *Engine) wake() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func removeEntry(list []*message.ResourceRecord, target *message.ResourceRecord) []*message.ResourceRecord {
	for i, e := range list {
		if e == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// loop is the engine's single worker goroutine: it multiplexes the
// transport's receive path against the wakeup channel.
func (e *Engine) loop(ctx context.Context) {
	defer close(e.done)

	for e.run.Get() != state.StopRequested {
		recvCtx, cancel := context.WithTimeout(ctx, e.pollInterval)
		packet, addr, err := e.transport.Receive(recvCtx)
		cancel()

		if err == nil {
			e.handlePacket(packet, addr)
		} else if ctx.Err() != nil {
			e.run.RequestStop()
		}

		select {
		case <-e.wakeup:
		default:
		}

		e.drainAnnounce()
		e.drainLeave()
	}

	e.sendGoodbyeAll()
	_ = e.transport.Close()
	e.run.Set(state.Stopped)
}

// handlePacket decodes an inbound packet and, if it is a standard query
// matching something this engine hosts, replies — unicast if any question
// requested it, multicast otherwise.
func (e *Engine) handlePacket(packet []byte, addr net.Addr) {
	if srcIP := addrIP(addr); srcIP != nil {
		if e.sourceFilter != nil && !e.sourceFilter.IsValid(srcIP) {
			e.logger.Debug().Str("src", srcIP.String()).Msg("dropping packet from invalid source")
			return
		}
		if e.rateLimiter != nil && !e.rateLimiter.Allow(srcIP.String()) {
			return
		}
	}

	query, err := message.DecodeMessage(packet)
	if err != nil {
		e.logger.Debug().Err(err).Msg("dropping malformed packet")
		return
	}
	if !query.Header.IsStandardQuery() {
		return
	}

	e.mu.Lock()
	reply, ok := internalresponder.BuildReply(e.store, query)
	e.mu.Unlock()
	if !ok {
		return
	}
	reply.Header.ID = query.Header.ID

	if anyUnicastQuestion(query.Questions) {
		e.transmit(reply, addr, nil)
		return
	}
	e.transmit(reply, nil, e.throttle.Allow)
}

func anyUnicastQuestion(qs []message.Question) bool {
	for _, q := range qs {
		if q.UnicastQuery {
			return true
		}
	}
	return false
}

func addrIP(addr net.Addr) net.IP {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP
	}
	return nil
}

// drainAnnounce pops every pending PTR off the announce queue and
// multicasts it together with its meta-PTR and the additional-record
// closure.
func (e *Engine) drainAnnounce() {
	for {
		e.mu.Lock()
		if len(e.announce) == 0 {
			e.mu.Unlock()
			return
		}
		ptr := e.announce[0]
		e.announce = e.announce[1:]

		answers := []*message.ResourceRecord{ptr}
		metaName := message.MustName(metaServiceName)
		for _, meta := range e.store.FindAll(metaName, uint16(protocol.RecordTypePTR)) {
			if pd, ok := meta.Data.(message.PTRData); ok && pd.TargetName.Equal(ptr.Name) {
				answers = append(answers, meta)
				break
			}
		}
		additionals := internalresponder.ExpandAdditionals(e.store, answers)
		e.mu.Unlock()

		msg := &message.Message{
			Header:      message.Header{Flags: protocol.FlagQR | protocol.FlagAA},
			Answers:     answers,
			Additionals: additionals,
		}
		e.transmit(msg, nil, e.throttle.AllowBurst)
	}
}

// drainLeave pops every pending PTR off the leave queue, sends a single
// goodbye packet carrying it at ttl=0, and then removes it from the store.
func (e *Engine) drainLeave() {
	for {
		e.mu.Lock()
		if len(e.leave) == 0 {
			e.mu.Unlock()
			return
		}
		ptr := e.leave[0]
		e.leave = e.leave[1:]
		e.mu.Unlock()

		e.transmit(goodbyeMessage(ptr), nil, nil)

		e.mu.Lock()
		e.store.Remove(ptr)
		e.mu.Unlock()
	}
}

// sendGoodbyeAll assembles and sends the final shutdown burst: every
// currently published service PTR at ttl=0.
func (e *Engine) sendGoodbyeAll() {
	e.mu.Lock()
	answers := make([]*message.ResourceRecord, 0, len(e.services))
	for _, ptr := range e.services {
		answers = append(answers, withTTL(ptr, 0))
	}
	e.services = nil
	e.mu.Unlock()

	if len(answers) == 0 {
		return
	}
	msg := &message.Message{
		Header:  message.Header{Flags: protocol.FlagQR | protocol.FlagAA},
		Answers: answers,
	}
	e.transmit(msg, nil, nil)
}

func goodbyeMessage(ptr *message.ResourceRecord) *message.Message {
	return &message.Message{
		Header:  message.Header{Flags: protocol.FlagQR | protocol.FlagAA},
		Answers: []*message.ResourceRecord{withTTL(ptr, 0)},
	}
}

func withTTL(rr *message.ResourceRecord, ttl uint32) *message.ResourceRecord {
	cp := *rr
	cp.TTL = ttl
	return &cp
}

// transmit encodes and sends msg. When allow is non-nil, msg.Answers is
// first filtered through it (the per-record multicast throttle); a
// nil allow is used for unicast replies and goodbyes, neither of which are
// throttled. No lock is held across the Send call itself.
func (e *Engine) transmit(msg *message.Message, dest net.Addr, allow func(*message.ResourceRecord) bool) {
	if allow != nil {
		e.mu.Lock()
		msg.Answers = filterAnswers(msg.Answers, allow)
		e.mu.Unlock()
		if len(msg.Answers) == 0 {
			return
		}
	}

	msg.Header.Flags |= protocol.FlagQR | protocol.FlagAA

	packet, err := message.EncodeMessage(msg)
	if err != nil {
		e.logger.Error().Err(err).Msg("failed to encode outgoing message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.sendTimeout)
	defer cancel()
	if err := e.transport.Send(ctx, packet, dest); err != nil {
		e.logger.Error().Err(err).Msg("send failed")
		return
	}

	if dest == nil {
		e.mu.Lock()
		for _, rr := range msg.Answers {
			e.throttle.Record(rr)
		}
		e.mu.Unlock()
	}
}

func filterAnswers(answers []*message.ResourceRecord, allow func(*message.ResourceRecord) bool) []*message.ResourceRecord {
	out := make([]*message.ResourceRecord, 0, len(answers))
	for _, rr := range answers {
		if allow(rr) {
			out = append(out, rr)
		}
	}
	return out
}
