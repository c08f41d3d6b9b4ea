package protocol

import (
	goerrors "errors"
	"strings"
	"testing"

	"github.com/joshuafuller/beacon/internal/errors"
)

// TestValidateName_RFC1035_ValidNames validates that ValidateName accepts
// well-formed names per RFC 1035 §3.1: domain names limited to 255 bytes,
// labels to 63 bytes, and characters to [a-z0-9-_] (case insensitive).
func TestValidateName_RFC1035_ValidNames(t *testing.T) {
	tests := []struct {
		name    string
		dnsName string
		wantErr bool
	}{
		{
			name:    "simple valid name per RFC 1035 §3.1",
			dnsName: "test.local",
			wantErr: false,
		},
		{
			name:    "printer name",
			dnsName: "printer.local",
			wantErr: false,
		},
		{
			name:    "service name with underscores (valid for mDNS)",
			dnsName: "_http._tcp.local",
			wantErr: false,
		},
		{
			name:    "name with hyphens",
			dnsName: "my-device.local",
			wantErr: false,
		},
		{
			name:    "multi-level name",
			dnsName: "a.b.c.d.local",
			wantErr: false,
		},
		{
			name:    "single label",
			dnsName: "localhost",
			wantErr: false,
		},
		{
			name:    "label exactly 63 bytes (valid per RFC 1035 §3.1)",
			dnsName: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.local",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.dnsName)

			if tt.wantErr && err == nil {
				t.Errorf("ValidateName(%q) expected error, got nil", tt.dnsName)
			}

			if !tt.wantErr && err != nil {
				t.Errorf("ValidateName(%q) unexpected error: %v", tt.dnsName, err)
			}
		})
	}
}

// TestValidateName_RFC1035_InvalidNames validates that ValidateName rejects
// names violating RFC 1035 §3.1: exceeding 255 bytes overall, a label
// exceeding 63 bytes, or containing a disallowed character.
func TestValidateName_RFC1035_InvalidNames(t *testing.T) {
	tests := []struct {
		name     string
		dnsName  string
		errField string
	}{
		{
			name:     "empty name",
			dnsName:  "",
			errField: "name",
		},
		{
			name:     "label exceeds 63 bytes per RFC 1035 §3.1",
			dnsName:  "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.local", // 64 'a's
			errField: "name",
		},
		{
			name:     "invalid character (space)",
			dnsName:  "test host.local",
			errField: "name",
		},
		{
			name:     "invalid character (slash)",
			dnsName:  "test/host.local",
			errField: "name",
		},
		{
			name:     "label starts with hyphen (invalid per RFC 1035 §3.1)",
			dnsName:  "-test.local",
			errField: "name",
		},
		{
			name:     "label ends with hyphen (invalid per RFC 1035 §3.1)",
			dnsName:  "test-.local",
			errField: "name",
		},
		{
			name:     "empty label (consecutive dots)",
			dnsName:  "test..local",
			errField: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.dnsName)

			if err == nil {
				t.Errorf("ValidateName(%q) expected error, got nil", tt.dnsName)
				return
			}

			// Verify it's a ValidationError
			var validationErr *errors.ValidationError
			if !goerrors.As(err, &validationErr) {
				t.Errorf("ValidateName(%q) expected ValidationError, got %T: %v", tt.dnsName, err, err)
				return
			}

			// Verify the field is set correctly
			if validationErr.Field != tt.errField {
				t.Errorf("ValidationError.Field = %q, expected %q", validationErr.Field, tt.errField)
			}
		})
	}
}

// TestValidateName_RFC1035_MaxNameLength validates that ValidateName enforces
// the 255-byte total length limit on domain names per RFC 1035 §3.1.
func TestValidateName_RFC1035_MaxNameLength(t *testing.T) {
	// Programmatically build a name that's exactly 255 bytes in wire format (VALID)
	// Wire format: each label = 1 byte length prefix + label content, plus 1 byte terminator
	//
	// 3 labels of 63 bytes: 3 * (1 + 63) = 192 bytes
	// 1 label of 61 bytes: 1 * (1 + 61) = 62 bytes
	// 1 byte terminator: 1 byte
	// Total: 192 + 62 + 1 = 255 bytes (exactly at limit)

	label63a := strings.Repeat("a", 63)
	label63b := strings.Repeat("b", 63)
	label63c := strings.Repeat("c", 63)
	label61 := strings.Repeat("d", 61)

	validName := label63a + "." + label63b + "." + label63c + "." + label61

	err := ValidateName(validName)
	if err != nil {
		t.Errorf("ValidateName(255-byte name) expected to pass per RFC 1035 §3.1, got error: %v", err)
	}

	// Build a name that exceeds 255 bytes (256 bytes in wire format - INVALID)
	// Wire format: 3 * (1 + 63) + 1 * (1 + 62) + 1 = 192 + 63 + 1 = 256 bytes
	label62 := strings.Repeat("e", 62)
	invalidName := label63a + "." + label63b + "." + label63c + "." + label62

	err = ValidateName(invalidName)
	if err == nil {
		t.Errorf("ValidateName(256-byte name) expected error per RFC 1035 §3.1, got nil")
		return
	}

	var validationErr *errors.ValidationError
	if !goerrors.As(err, &validationErr) {
		t.Errorf("Expected ValidationError, got %T: %v", err, err)
	}
}

// TestIsStandardQuery_RFC6762_QueryFlags validates that IsStandardQuery
// accepts only messages with QR=0 (query) and OPCODE=0 (standard query),
// per RFC 6762 §18.2 and §18.3.
//
// RFC 6762 §18.2: Queries have the QR bit clear.
// RFC 6762 §18.3: OPCODE MUST be zero in mDNS messages.
func TestIsStandardQuery_RFC6762_QueryFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags uint16
		want  bool
	}{
		{
			name:  "QR=0, OPCODE=0 is a standard query",
			flags: 0x0000,
			want:  true,
		},
		{
			name:  "QR=1 (response) is never a standard query",
			flags: 0x8000,
			want:  false,
		},
		{
			name:  "OPCODE=1 (inverse query) rejected per RFC 6762 §18.3",
			flags: 0x0800,
			want:  false,
		},
		{
			name:  "OPCODE=2 (status) rejected per RFC 6762 §18.3",
			flags: 0x1000,
			want:  false,
		},
		{
			name:  "RD bit set is still a standard query; only QR/OPCODE matter",
			flags: 0x0100,
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStandardQuery(tt.flags); got != tt.want {
				t.Errorf("IsStandardQuery(0x%04X) = %v, want %v", tt.flags, got, tt.want)
			}
		})
	}
}
