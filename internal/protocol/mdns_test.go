package protocol

import "testing"

func TestPort(t *testing.T) {
	if Port != 5353 {
		t.Errorf("Port = %d, want 5353 per RFC 6762 §5", Port)
	}
}

func TestMulticastGroupIPv4(t *testing.T) {
	addr := MulticastGroupIPv4()
	if addr.IP.String() != "224.0.0.251" { // nosemgrep: beacon-hardcoded-multicast-address
		t.Errorf("MulticastGroupIPv4().IP = %s, want 224.0.0.251", addr.IP)
	}
	if addr.Port != Port {
		t.Errorf("MulticastGroupIPv4().Port = %d, want %d", addr.Port, Port)
	}
	if !addr.IP.IsMulticast() {
		t.Error("MulticastGroupIPv4().IP is not a multicast address")
	}
}

func TestRecordTypeString(t *testing.T) {
	tests := []struct {
		rt   RecordType
		want string
	}{
		{RecordTypeA, "A"},
		{RecordTypeAAAA, "AAAA"},
		{RecordTypePTR, "PTR"},
		{RecordTypeTXT, "TXT"},
		{RecordTypeSRV, "SRV"},
		{RecordTypeNSEC, "NSEC"},
		{RecordTypeANY, "ANY"},
		{RecordType(999), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.rt.String(); got != tt.want {
			t.Errorf("RecordType(%d).String() = %s, want %s", tt.rt, got, tt.want)
		}
	}
}

func TestRecordTypeIsStoredType(t *testing.T) {
	stored := []RecordType{RecordTypeA, RecordTypeAAAA, RecordTypePTR, RecordTypeSRV, RecordTypeTXT, RecordTypeNSEC}
	for _, rt := range stored {
		if !rt.IsStoredType() {
			t.Errorf("%s.IsStoredType() = false, want true", rt)
		}
	}
	if RecordTypeANY.IsStoredType() {
		t.Error("RecordTypeANY.IsStoredType() = true, want false (query wildcard, never stored)")
	}
}

func TestIsStandardQuery(t *testing.T) {
	tests := []struct {
		name  string
		flags uint16
		want  bool
	}{
		{"query, opcode 0", 0x0000, true},
		{"response", FlagQR, false},
		{"non-zero opcode", 0x0800, false},
	}
	for _, tt := range tests {
		if got := IsStandardQuery(tt.flags); got != tt.want {
			t.Errorf("%s: IsStandardQuery(0x%04X) = %v, want %v", tt.name, tt.flags, got, tt.want)
		}
	}
}

func TestTTLConstants(t *testing.T) {
	if TTLHostBound != 120 {
		t.Errorf("TTLHostBound = %d, want 120", TTLHostBound)
	}
	if TTLGeneric != 4500 {
		t.Errorf("TTLGeneric = %d, want 4500", TTLGeneric)
	}
}

func TestCompressionMask(t *testing.T) {
	if CompressionMask != 0xC0 {
		t.Errorf("CompressionMask = 0x%02X, want 0xC0", CompressionMask)
	}
}

func TestMaxCompressionPointersBound(t *testing.T) {
	if MaxCompressionPointers != 128 {
		t.Errorf("MaxCompressionPointers = %d, want 128", MaxCompressionPointers)
	}
}
