package smbfs

// AccessMask is the 32-bit NT access mask (MS-DTYP 2.4.3), the normal form
// every dialect's open/create request is translated into before it reaches
// the tree connection.
type AccessMask uint32

// NT access mask bits. Only the subset the core cares about for access and
// sharing checks is named; unrecognized bits are preserved but not interpreted.
const (
	AccessRead            AccessMask = 0x00000001
	AccessWrite           AccessMask = 0x00000002
	AccessAppend          AccessMask = 0x00000004
	AccessReadEA          AccessMask = 0x00000008
	AccessWriteEA         AccessMask = 0x00000010
	AccessExecute         AccessMask = 0x00000020
	AccessDeleteChild     AccessMask = 0x00000040
	AccessReadAttributes  AccessMask = 0x00000080
	AccessWriteAttributes AccessMask = 0x00000100
	AccessDelete          AccessMask = 0x00010000
	AccessReadControl     AccessMask = 0x00020000
	AccessWriteDAC        AccessMask = 0x00040000
	AccessWriteOwner      AccessMask = 0x00080000
	AccessSynchronize     AccessMask = 0x00100000

	AccessGenericAll     AccessMask = 0x10000000
	AccessGenericExecute AccessMask = 0x20000000
	AccessGenericWrite   AccessMask = 0x40000000
	AccessGenericRead    AccessMask = 0x80000000

	AccessMaximumAllowed AccessMask = 0x02000000

	// NTRead, NTWrite and NTReadWrite are the composite masks legacy
	// dialects (Core/LanMan) are mapped onto; they are also the values
	// isReadOnlyAccess/isWriteOnlyAccess/isReadWriteAccess compare against.
	NTRead      AccessMask = AccessRead | AccessReadEA | AccessReadAttributes | AccessSynchronize
	NTWrite     AccessMask = AccessWrite | AccessAppend | AccessWriteEA | AccessWriteAttributes | AccessSynchronize
	NTReadWrite AccessMask = NTRead | NTWrite
)

// Has reports whether all bits of mask are set.
func (a AccessMask) Has(mask AccessMask) bool { return a&mask == mask }

// Any reports whether any bit of mask is set.
func (a AccessMask) Any(mask AccessMask) bool { return a&mask != 0 }

// legacyAccessMode is the 2-bit Core/LanMan access mode carried in the low
// bits of the open mode word.
type legacyAccessMode uint8

const (
	LegacyAccessReadOnly legacyAccessMode = iota
	LegacyAccessWriteOnly
	LegacyAccessReadWrite
	LegacyAccessExecute
)

// legacyAccessToNT maps §4.1's fixed legacy-access table:
// ReadOnly->NTRead, WriteOnly->NTWrite, ReadWrite->NTReadWrite, Execute->NTRead.
var legacyAccessToNT = map[legacyAccessMode]AccessMask{
	LegacyAccessReadOnly:  NTRead,
	LegacyAccessWriteOnly: NTWrite,
	LegacyAccessReadWrite: NTReadWrite,
	LegacyAccessExecute:   NTRead,
}

func ntAccessFromLegacy(mode legacyAccessMode) AccessMask {
	if mask, ok := legacyAccessToNT[mode]; ok {
		return mask
	}
	return NTRead
}

// SharingMode is the NT sharing enum (MS-SMB2 2.2.13 ShareAccess), one of
// the combinations of {Read, Write, Delete} or None.
type SharingMode uint8

const (
	SharingNone SharingMode = 0
	SharingRead SharingMode = 1 << iota
	SharingWrite
	SharingDelete
)

const SharingReadWrite = SharingRead | SharingWrite

// legacySharingMode is the 3-bit Core/LanMan sharing mode.
type legacySharingMode uint8

const (
	LegacySharingCompat legacySharingMode = iota
	LegacySharingExclusive
	LegacySharingDenyWrite
	LegacySharingDenyRead
	LegacySharingDenyNone
)

// ntSharingFromLegacy implements the §4.1 fixed table: Exclusive->None,
// DenyRead->Write, DenyWrite->Read, otherwise->ReadWrite.
func ntSharingFromLegacy(mode legacySharingMode) SharingMode {
	switch mode {
	case LegacySharingExclusive:
		return SharingNone
	case LegacySharingDenyRead:
		return SharingWrite
	case LegacySharingDenyWrite:
		return SharingRead
	default:
		return SharingReadWrite
	}
}

// SharingConflict reports whether an already-open file with sharing mode `existing`
// and access `existingAccess` conflicts with a new request wanting `wantAccess`
// under `want` sharing semantics. tree.Connection has no open operation and
// does not call it.
func SharingConflict(existing SharingMode, existingAccess AccessMask, want SharingMode, wantAccess AccessMask) bool {
	if wantAccess.Any(AccessRead|AccessExecute) && existing&SharingRead == 0 {
		return true
	}
	if wantAccess.Any(AccessWrite|AccessAppend) && existing&SharingWrite == 0 {
		return true
	}
	if wantAccess.Has(AccessDelete) && existing&SharingDelete == 0 {
		return true
	}
	if existingAccess.Any(AccessRead|AccessExecute) && want&SharingRead == 0 {
		return true
	}
	if existingAccess.Any(AccessWrite|AccessAppend) && want&SharingWrite == 0 {
		return true
	}
	if existingAccess.Has(AccessDelete) && want&SharingDelete == 0 {
		return true
	}
	return false
}
