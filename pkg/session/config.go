package session

import (
	"time"

	"github.com/mfld-dnx/dnx/pkg/payload"
	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// Config is everything Run needs beyond the transport itself: the parsed
// payloads and the small set of flags dnx-core's SessionConfig carries,
// minus the TOML persistence layer (see DESIGN.md).
type Config struct {
	// FW is required; a session always drives a firmware download first.
	FW *payload.FirmwarePayload

	// OS is nil when no OS recovery image was supplied; the post-RESET
	// reopen then proceeds straight to Complete.
	OS *payload.OsPayload
	// OSPartition selects which OSIP table entry RIMG serves.
	OSPartition int

	// IFWIWipe sets the wipe bit of the gp-flags the DxxM decision reads,
	// sending it down the FwWipe branch, mirroring dnx-core's
	// ifwi_wipe_enable override. No other gp-flags bit is set.
	IFWIWipe bool

	// ROMPIDs and FWStagePIDs default to protocol.ROMStagePIDs and
	// protocol.FWStagePIDs respectively when left zero-valued.
	ROMPIDs     []uint16
	FWStagePIDs []uint16

	ReopenAttempts int
	ReopenInterval time.Duration
	ReadTimeout    time.Duration
}

// withDefaults returns a copy of c with zero-valued fields replaced by
// spec.md §4.5/§5's defaults (10 reopen attempts, 500ms spacing, 5s read
// timeout).
func (c Config) withDefaults() Config {
	if c.ROMPIDs == nil {
		c.ROMPIDs = protocol.ROMStagePIDs
	}
	if c.FWStagePIDs == nil {
		c.FWStagePIDs = protocol.FWStagePIDs
	}
	if c.ReopenAttempts == 0 {
		c.ReopenAttempts = 10
	}
	if c.ReopenInterval == 0 {
		c.ReopenInterval = 500 * time.Millisecond
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 5 * time.Second
	}
	return c
}
