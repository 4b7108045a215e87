package state

import (
	"github.com/mfld-dnx/dnx/pkg/payload"
	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// Step is the pure transition function driving the ROM->FW->OS bootstrap:
// given the current state and the ACK just read off the wire, it decides
// the next state and the single action the orchestrator should perform.
// It never touches a transport; SoC advisories, device errors and the
// HLT0 success shortcut are handled uniformly before any state-specific
// dispatch, exactly as spec.md's transition table lists them under "any".
// Complete and Aborted are never left: from either, every ACK returns the
// same state with a protocol-violation abort.
func Step(cur DnxState, ack protocol.AckCode, ctx *Context) (DnxState, Action) {
	if cur.IsTerminal() {
		return cur, protocolViolation(cur, ack)
	}
	switch {
	case ack.Equal(protocol.AckMFLD):
		ctx.Soc = SocMedfield
		return cur, ActionNoOp{}
	case ack.Equal(protocol.AckCLVT):
		ctx.Soc = SocClovertrail
		return cur, ActionNoOp{}
	case ack.Equal(protocol.AckHLT0):
		return Complete, ActionComplete{}
	case ack.IsError():
		return Aborted, ActionAbort{Err: &DeviceError{Ack: ack}}
	}

	switch cur {
	case Invalid:
		return stepInvalid(ack, ctx)
	case FwNormal, FwMisc, FwWipe:
		return stepFirmware(cur, ack, ctx)
	case OsNormal, OsMisc:
		return stepOs(cur, ack, ctx)
	default:
		return Aborted, protocolViolation(cur, ack)
	}
}

// Reopened is called by the orchestrator once the transport has
// successfully reopened after a RESET, completing the "FwNormal*
// (reopen)" row of the transition table. It proceeds to OS download if
// one was configured, else the session is already done. FwMisc carries
// its sub-state across the reopen into OsMisc; every other firmware
// sub-state (FwNormal, FwWipe) proceeds to OsNormal -- spec.md's table
// only spells out the FwNormal case, so this generalizes it the same way
// the rest of the firmware group generalizes across its sub-states.
func Reopened(cur DnxState, ctx *Context) (DnxState, Action) {
	if !ctx.HasOSImage() {
		return Complete, ActionComplete{}
	}
	if cur == FwMisc {
		return OsMisc, ActionNoOp{}
	}
	return OsNormal, ActionNoOp{}
}

func protocolViolation(cur DnxState, ack protocol.AckCode) Action {
	return ActionAbort{Err: &ProtocolViolationError{State: cur, Ack: ack}}
}

func stepInvalid(ack protocol.AckCode, ctx *Context) (DnxState, Action) {
	switch {
	case ack.Equal(protocol.AckDFRM):
		return FwNormal, ActionSendBytes{Data: ctx.FW.DXBLBytes()}
	case ack.Equal(protocol.AckDxxM):
		next := FwNormal
		switch {
		case ctx.GPFlags&protocol.GPFlagWipeMode != 0:
			next = FwWipe
		case ctx.GPFlags&protocol.GPFlagMiscMode != 0:
			next = FwMisc
		}
		return next, ActionSendBytes{Data: ctx.FW.DXBLBytes()}
	default:
		return Aborted, protocolViolation(Invalid, ack)
	}
}

func stepFirmware(cur DnxState, ack protocol.AckCode, ctx *Context) (DnxState, Action) {
	switch {
	case ack.Equal(protocol.AckDXBL):
		return cur, ActionSendBytes{Data: ctx.FW.DXBLBytes()}
	case ack.Equal(protocol.AckRUPHS):
		return cur, ActionSendSize{N: ctx.FW.FuphSize()}
	case ack.Equal(protocol.AckRUPH):
		return cur, ActionSendBytes{Data: ctx.FW.RUPHBytes()}
	case ack.Equal(protocol.AckDMIP):
		return cur, ActionSendBytes{Data: ctx.FW.DMIPBytes()}
	case ack.Equal(protocol.AckLOFW):
		return cur, ActionSendBytes{Data: ctx.FW.LOFWBytes()}
	case ack.Equal(protocol.AckHIFW):
		return cur, ActionSendBytes{Data: ctx.FW.HIFWBytes()}
	case ack.Equal(protocol.AckPSFW1):
		return cur, nextFramedChunkAction(ctx.psfw1Iter())
	case ack.Equal(protocol.AckPSFW2):
		return cur, nextFramedChunkAction(ctx.psfw2Iter())
	case ack.Equal(protocol.AckSSFW):
		return cur, nextFramedChunkAction(ctx.ssfwIter())
	case ack.Equal(protocol.AckVEDFW):
		return cur, nextFramedChunkAction(ctx.vedfwIter())
	case ack.Equal(protocol.AckSuCP):
		return cur, nextFramedChunkAction(ctx.romPatchIter())
	case ack.Equal(protocol.AckRESET):
		return cur, ActionAwaitReenumeration{}
	default:
		return Aborted, protocolViolation(cur, ack)
	}
}

func stepOs(cur DnxState, ack protocol.AckCode, ctx *Context) (DnxState, Action) {
	switch {
	case ack.Equal(protocol.AckDORM):
		return cur, ActionNoOp{}
	case ack.Equal(protocol.AckOSIPSz):
		return cur, ActionSendSize{N: uint32(protocol.OsipTableSize)}
	case ack.Equal(protocol.AckROSIP):
		return cur, ActionSendBytes{Data: ctx.OS.ROSIPBytes()}
	case ack.Equal(protocol.AckRIMG):
		it, err := ctx.rimgIter()
		if err != nil {
			return Aborted, ActionAbort{Err: err}
		}
		return cur, nextChunkAction(it)
	case ack.Equal(protocol.AckEOIU):
		return cur, ActionNoOp{}
	case ack.Equal(protocol.AckDONE), ack.Equal(protocol.AckHLT):
		return Complete, ActionComplete{}
	default:
		return Aborted, protocolViolation(cur, ack)
	}
}

// nextChunkAction drains one raw chunk off it, unframed. Used for RIMG,
// which spec.md lists as bare 64 KiB image slices with no per-chunk header.
func nextChunkAction(it *payload.ChunkIterator) Action {
	chunk, ok := it.Next()
	if !ok {
		return ActionNoOp{}
	}
	return ActionSendBytes{Data: chunk}
}

// nextFramedChunkAction drains one chunk off it and prefixes it with its
// own freshly-computed DnxHeader. PSFW1/PSFW2/SSFW/VEDFW/SuCP are each sent
// as a sequence of independently-framed (header, chunk) writes, unlike
// LOFW/HIFW and RIMG, which are unframed raw slices.
func nextFramedChunkAction(it *payload.ChunkIterator) Action {
	chunk, ok := it.Next()
	if !ok {
		return ActionNoOp{}
	}
	h := protocol.NewDnxHeader(chunk)
	out := make([]byte, 0, protocol.DnxHeaderSize+len(chunk))
	out = append(out, h.Bytes()...)
	out = append(out, chunk...)
	return ActionSendBytes{Data: out}
}
