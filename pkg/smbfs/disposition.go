package smbfs

// Disposition is the six-valued create disposition enum (MS-SMB2 2.2.13
// CreateDisposition), the normal form every dialect's open/create action
// byte is resolved into.
type Disposition uint8

const (
	DispositionSupersede Disposition = iota
	DispositionOpen
	DispositionCreate
	DispositionOpenIf
	DispositionOverwrite
	DispositionOverwriteIf
)

// legacyFileAction is the Core/LanMan FileAction bit combination
// (createIf | truncate | openIf, packed as a 3-bit value) that
// legacyDispositionTable resolves to one of the six NT dispositions.
type legacyFileAction uint8

const (
	legacyActionOpenExisting    legacyFileAction = 0x01 // open if exists, fail otherwise
	legacyActionCreateNew       legacyFileAction = 0x10 // create, fail if exists
	legacyActionOpenOrCreate    legacyFileAction = 0x11 // open if exists, else create
	legacyActionTruncateExisting legacyFileAction = 0x02 // truncate, fail if absent
	legacyActionTruncateOrCreate legacyFileAction = 0x12 // truncate if exists, else create
)

// legacyDispositionTable maps the five legacy action combinations above onto
// NT dispositions; no legacy action word resolves to DispositionSupersede. A
// legacy action word that matches no entry falls back to DispositionOpen, per
// the Open Question recorded in DESIGN.md: callers must not depend on any
// other specific fallback.
var legacyDispositionTable = map[legacyFileAction]Disposition{
	legacyActionOpenExisting:     DispositionOpen,
	legacyActionCreateNew:        DispositionCreate,
	legacyActionOpenOrCreate:     DispositionOpenIf,
	legacyActionTruncateExisting: DispositionOverwrite,
	legacyActionTruncateOrCreate: DispositionOverwriteIf,
}

func dispositionFromLegacyAction(action legacyFileAction) Disposition {
	if d, ok := legacyDispositionTable[action]; ok {
		return d
	}
	return DispositionOpen
}

// IsOverwrite reports whether the disposition truncates an existing file
// on successful open (Supersede, Overwrite, OverwriteIf).
func (d Disposition) IsOverwrite() bool {
	switch d {
	case DispositionSupersede, DispositionOverwrite, DispositionOverwriteIf:
		return true
	default:
		return false
	}
}

// Attributes is the 32-bit opaque DOS/NT attribute mask carried on
// OpenParams, FileInfo, and NetworkFile. The core never interprets these
// bits except at open-time for CreateDirectory/DeleteOnClose-style hints
// and to maintain the FileAttributeDirectory bit.
type Attributes uint32

// DOS attribute bits.
const (
	AttrReadOnly Attributes = 1 << iota
	AttrHidden
	AttrSystem
	AttrVolume
	AttrDirectory
	AttrArchive
)

// NT-extended attribute and open-mode-hint bits.
const (
	AttrTemporary Attributes = 1 << (iota + 8)
	AttrSparse
	AttrReparsePoint
	AttrCompressed
	AttrOffline
	AttrNotIndexed
	AttrEncrypted
	AttrDeleteOnClose
	AttrSequentialScan
	AttrRandomAccess
	AttrNoBuffering
	AttrOverlapped
	AttrWriteThrough
	AttrBackupSemantics
	AttrPosixSemantics
)

// Oplock is the normalized oplock request/grant level.
type Oplock uint8

const (
	OplockNone Oplock = iota
	OplockLevelII
	OplockExclusive
	OplockBatch
)

// oplockRequestBits are the three independent request bits a CREATE may
// set; resolveOplockRequest applies the §4.1 priority Batch > Exclusive > LevelII.
type oplockRequestBits struct {
	Batch, Exclusive, LevelII bool
}

func resolveOplockRequest(bits oplockRequestBits) Oplock {
	switch {
	case bits.Batch:
		return OplockBatch
	case bits.Exclusive:
		return OplockExclusive
	case bits.LevelII:
		return OplockLevelII
	default:
		return OplockNone
	}
}
