// Package protocol defines the wire constants, ACK decoder and on-wire
// header formats of Intel's DnX (Download and eXecute) recovery protocol, as
// used on Medfield/Clovertrail/Merrifield/Moorefield (MFLD/CLVT/TNG/ANN)
// mobile SoCs.
package protocol

// IntelVID is the USB Vendor ID used by all DnX-capable SoCs.
const IntelVID = 0x8086

// ROM-stage Product IDs: the PID the on-chip ROM enumerates under before any
// firmware has been accepted.
const (
	PIDMedfieldROM   = 0xE004
	PIDMedfieldFW    = 0x0A14
	PIDMoorefieldDnX = 0x0A2C
	PIDMoorefieldAlt = 0x0A65
)

// ROMStagePIDs lists every PID the orchestrator should probe for when first
// looking for a device.
var ROMStagePIDs = []uint16{PIDMedfieldROM, PIDMedfieldFW, PIDMoorefieldDnX, PIDMoorefieldAlt}

// FWStagePIDs lists the PIDs a device may re-enumerate under after RESET.
// The device may come back under any of the PIDs it could have started
// under, so this is the same set as ROMStagePIDs.
var FWStagePIDs = ROMStagePIDs

// Chunk and header sizes.
const (
	MaxPktSize      = 0x200
	OneTwentyEightK = 128 * 1024
	SixtyFourK      = 64 * 1024

	DnxHeaderSize = 0x18

	FuphHeaderSizeD0     = 0x24
	FuphHeaderSizeC0     = 0x20
	FuphHeaderSizeOldMFD = 0x1C

	OsipTableSize = 0x200
)

// Size offsets inside the FW Update Profile Header.
const (
	FuphPsfw1SizeOffset    = 0x0C
	FuphPsfw2SizeOffset    = 0x10
	FuphSsfwSizeOffset     = 0x14
	FuphRomPatchSizeOffset = 0x18
)

// Offsets inside the OSIP partition table.
const (
	OsipSizeOffset        = 0x04
	OsipNumPointersOffset = 0x08
)

// OSPartitionSizeOffset returns the byte offset of partition n's image-size
// field within the OSIP table.
func OSPartitionSizeOffset(n int) int {
	return n*0x18 + 0x30
}

// GP flag bits tested by the device's DxxM response to pick the non-virgin
// download variant: bit 0 selects misc mode, bit 1 selects wipe mode.
const (
	GPFlagMiscMode = 1 << 0
	GPFlagWipeMode = 1 << 1
)

// Canonical ACK codes, keyed the way spec.md §6 lists them. Codes of 5 and 7
// bytes are the ones the decoder must treat as "commit to reading more"
// cases; everything else is a plain 4-byte token.
var (
	AckDnER  = MustAckFromASCII("DnER")
	AckDFRM  = MustAckFromASCII("DFRM")
	AckDxxM  = MustAckFromASCII("DxxM")
	AckDXBL  = MustAckFromASCII("DXBL")
	AckRUPHS = MustAckFromASCII("RUPHS")
	AckRUPH  = MustAckFromASCII("RUPH")
	AckDMIP  = MustAckFromASCII("DMIP")
	AckLOFW  = MustAckFromASCII("LOFW")
	AckHIFW  = MustAckFromASCII("HIFW")
	AckPSFW1 = MustAckFromASCII("PSFW1")
	AckPSFW2 = MustAckFromASCII("PSFW2")
	AckSSFW  = MustAckFromASCII("SSFW")
	AckVEDFW = MustAckFromASCII("VEDFW")
	AckSuCP  = MustAckFromASCII("SuCP")
	AckRESET = MustAckFromASCII("RESET")
	AckHLT   = MustAckFromASCII("HLT$")
	AckHLT0  = MustAckFromASCII("HLT0")
	AckMFLD  = MustAckFromASCII("MFLD")
	AckCLVT  = MustAckFromASCII("CLVT")
	AckDORM   = MustAckFromASCII("DORM")
	AckOSIPSz = MustAckFromASCII("OSIP Sz")
	AckROSIP  = MustAckFromASCII("ROSIP")
	AckRIMG   = MustAckFromASCII("RIMG")
	AckEOIU  = MustAckFromASCII("EOIU")
	AckDONE  = MustAckFromASCII("DONE")
	AckERRR  = MustAckFromASCII("ERRR")
)

// errorMnemonics is the set of indexed error tokens (ER00..ER25) observed in
// the wild. The decoder doesn't need this list to recognize an error code —
// any 4-byte token starting with "ER" followed by two digits is treated as
// one — but it's kept for documentation.
var errorMnemonics = []string{
	"ER00", "ER01", "ER02", "ER03", "ER04",
	"ER10", "ER11", "ER12", "ER13", "ER15", "ER16", "ER17", "ER18",
	"ER20", "ER21", "ER22", "ER25",
}
