// Package protocol implements mDNS protocol validation and constants.
package protocol

import (
	"fmt"
	"strings"

	"github.com/joshuafuller/beacon/internal/errors"
)

// ValidateName validates a dotted-form DNS name per RFC 1035 §3.1.
//
// Rules: total wire length ≤255 bytes, each label ≤63 bytes, labels use
// [a-zA-Z0-9-_] (underscore allowed for DNS-SD service/proto labels per
// RFC 6763 §7), and no label may start or end with a hyphen.
//
// This is for protocol-format names (service types, the responder's own
// hostname) whose labels are format-constrained. User-supplied identifiers
// such as a DNS-SD instance name are arbitrary UTF-8 and must go through
// ValidateNameLength instead — see its doc comment.
func ValidateName(name string) error {
	return validateName(name, true)
}

// ValidateNameLength validates a dotted-form DNS name's length only: total
// wire length ≤255 bytes, each label ≤63 bytes, no empty (consecutive-dot)
// label. It does not constrain label characters.
//
// DNS-SD instance names (RFC 6763 §4.1) are arbitrary UTF-8 — spaces,
// punctuation, non-ASCII — and the responder does not re-validate them
// beyond length, matching what it actually needs to fit on the wire.
func ValidateNameLength(name string) error {
	return validateName(name, false)
}

func validateName(name string, checkChars bool) error {
	if name == "" {
		return &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: "name cannot be empty",
		}
	}

	trimmed := strings.TrimSuffix(name, ".")
	labels := strings.Split(trimmed, ".")

	wireLength := 1 // terminator
	for _, label := range labels {
		wireLength += 1 + len(label)
	}
	if wireLength > MaxNameLength {
		return &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("name exceeds maximum length %d bytes (wire format: %d bytes) per RFC 1035 §3.1", MaxNameLength, wireLength),
		}
	}

	for i, label := range labels {
		if err := validateLabel(label, i, checkChars); err != nil {
			return &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: err.Error(),
			}
		}
	}

	return nil
}

func validateLabel(label string, position int, checkChars bool) error {
	if label == "" {
		return fmt.Errorf("empty label at position %d (consecutive dots)", position)
	}
	if len(label) > MaxLabelLength {
		return fmt.Errorf("label %q exceeds maximum length 63 bytes per RFC 1035 §3.1", label)
	}
	if !checkChars {
		return nil
	}
	if strings.HasPrefix(label, "-") {
		return fmt.Errorf("label %q starts with hyphen (invalid per RFC 1035 §3.1)", label)
	}
	if strings.HasSuffix(label, "-") {
		return fmt.Errorf("label %q ends with hyphen (invalid per RFC 1035 §3.1)", label)
	}
	for i, ch := range label {
		if !isValidDNSChar(ch) {
			return fmt.Errorf("invalid character %q in label %q (position %d)", ch, label, i)
		}
	}
	return nil
}

// isValidDNSChar reports whether ch is legal in a DNS-SD label.
func isValidDNSChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' ||
		ch == '_'
}

// IsStandardQuery reports whether header flags identify a standard mDNS
// query: QR=0 (query, not response) and OPCODE=0, per RFC 6762 §18.2/§18.3.
// Anything else (responses, non-standard opcodes) is silently dropped by
// the engine rather than answered, per the responder's receive loop.
func IsStandardQuery(flags uint16) bool {
	qr := flags & FlagQR
	opcode := (flags >> 11) & 0x0F
	return qr == 0 && uint16(opcode) == OpcodeQuery
}
