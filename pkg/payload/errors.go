package payload

import "errors"

// ErrInvalidFirmware reports a structural defect in a dnx_fwr.bin image:
// missing $DnX marker, an unparsable FUPH, or no Chaabi markers. Callers
// that need the specific reason should inspect the wrapped error text;
// InvalidFirmwareError below carries it as a field for programmatic use.
var ErrInvalidFirmware = errors.New("payload: invalid firmware image")

// ErrInvalidOsImage reports a structural defect in an OS recovery image:
// bad OSIP signature, or a partition index out of range.
var ErrInvalidOsImage = errors.New("payload: invalid os image")

// ErrChecksumMismatch reports that a parsed component's checksum doesn't
// match its declared value.
var ErrChecksumMismatch = errors.New("payload: checksum mismatch")

// InvalidFirmwareError carries the specific reason ErrInvalidFirmware was
// returned for, so callers (the analyzer, the CLI's error-to-exit-code
// mapping) can report it without string-matching.
type InvalidFirmwareError struct {
	Reason string
}

func (e *InvalidFirmwareError) Error() string {
	return "payload: invalid firmware image: " + e.Reason
}

func (e *InvalidFirmwareError) Unwrap() error { return ErrInvalidFirmware }

// InvalidOsImageError carries the specific reason ErrInvalidOsImage was
// returned for.
type InvalidOsImageError struct {
	Reason string
}

func (e *InvalidOsImageError) Error() string {
	return "payload: invalid os image: " + e.Reason
}

func (e *InvalidOsImageError) Unwrap() error { return ErrInvalidOsImage }
