package state

import (
	"github.com/mfld-dnx/dnx/pkg/payload"
)

// Soc records which SoC family the device advertised via an MFLD/CLVT
// advisory ACK. Purely informational -- nothing in the transition table
// branches on it.
type Soc uint8

const (
	SocUnknown Soc = iota
	SocMedfield
	SocClovertrail
)

func (s Soc) String() string {
	switch s {
	case SocMedfield:
		return "Medfield"
	case SocClovertrail:
		return "Clovertrail"
	default:
		return "Unknown"
	}
}

// Context carries everything Step needs beyond the current state and the
// ACK just received: the payloads it draws bytes from, the flags the
// device has volunteered, and the chunk iterators that track progress
// through the security-firmware and OS-image streams. It is owned by the
// session and mutated in place across calls to Step; Step itself performs
// no I/O.
type Context struct {
	FW *payload.FirmwarePayload
	OS *payload.OsPayload

	// OSPartition selects which entry of the OS image's OSIP table RIMG
	// draws chunks from.
	OSPartition int

	// GPFlags is the gp-flags word the DxxM branch decision reads; zero
	// selects FwNormal. The session sets only the wipe bit, from
	// Config.IFWIWipe; it does not read gp-flags from the device.
	GPFlags uint32

	Soc Soc

	psfw1, psfw2, ssfw, vedfw, romPatch, rimg *payload.ChunkIterator
}

func (c *Context) psfw1Iter() *payload.ChunkIterator {
	if c.psfw1 == nil {
		c.psfw1 = c.FW.Psfw1Chunks()
	}
	return c.psfw1
}

func (c *Context) psfw2Iter() *payload.ChunkIterator {
	if c.psfw2 == nil {
		c.psfw2 = c.FW.Psfw2Chunks()
	}
	return c.psfw2
}

func (c *Context) ssfwIter() *payload.ChunkIterator {
	if c.ssfw == nil {
		c.ssfw = c.FW.SsfwChunks()
	}
	return c.ssfw
}

func (c *Context) vedfwIter() *payload.ChunkIterator {
	if c.vedfw == nil {
		c.vedfw = c.FW.VedfwChunks()
	}
	return c.vedfw
}

func (c *Context) romPatchIter() *payload.ChunkIterator {
	if c.romPatch == nil {
		c.romPatch = c.FW.RomPatchChunks()
	}
	return c.romPatch
}

func (c *Context) rimgIter() (*payload.ChunkIterator, error) {
	if c.rimg == nil {
		it, err := c.OS.RIMGChunks(c.OSPartition)
		if err != nil {
			return nil, err
		}
		c.rimg = it
	}
	return c.rimg, nil
}

// HasOSImage reports whether an OS image was configured for this session,
// which decides whether the post-RESET reopen proceeds to OsNormal or
// straight to Complete.
func (c *Context) HasOSImage() bool {
	return c.OS != nil
}
