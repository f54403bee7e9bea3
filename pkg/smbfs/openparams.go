// Package smbfs implements the in-memory filesystem core of an SMB/CIFS
// file server: open-parameter normalization, the handle and search
// registries, tree connection lifecycle, the device context, and the
// segment-based file-data streaming cache. It sits between a wire-protocol
// layer (not implemented here) and a pluggable storage driver (pkg/smbfs/iface).
package smbfs

import "strings"

// OpenParams is a normalized record of one open/create request, produced
// from any of the three wire dialects by NewOpenParamsFromNT,
// NewOpenParamsFromLanMan or NewOpenParamsFromCore. Construction never
// fails: invalid combinations are carried through unchanged and are only
// rejected at the driver boundary (see pkg/smbfs/errors).
type OpenParams struct {
	// Path is anchored to the share root; a leading separator is always present.
	Path string

	// Stream is the alternate-data-stream name (without the leading ':'),
	// or empty if the open targets the main data stream.
	Stream string

	Access       AccessMask
	Sharing      SharingMode
	Disposition  Disposition
	Attributes   Attributes
	CreateOption uint32
	Oplock       Oplock
}

// CreateOption bits relevant to the core (subset of MS-SMB2 2.2.13 CreateOptions).
const (
	CreateOptionDirectoryFile    uint32 = 0x00000001
	CreateOptionWriteThrough     uint32 = 0x00000002
	CreateOptionSequentialOnly   uint32 = 0x00000004
	CreateOptionNoBuffering      uint32 = 0x00000008
	CreateOptionDeleteOnClose    uint32 = 0x00001000
	CreateOptionNonDirectoryFile uint32 = 0x00000040
	CreateOptionRandomAccess     uint32 = 0x00000800
	CreateOptionOpenReparsePoint uint32 = 0x00200000
)

// splitStream splits a raw path on the first ':' separator into the base
// path and the stream suffix, applying the §4.1 normalization rules:
//   - a bare "::$DATA" (main-data-stream marker) suffix is dropped entirely
//   - a trailing ":$DATA" on a named stream is stripped
//   - if no ':' is present, stream is absent
//
// The returned stream retains its leading ':' (e.g. ":stream"), matching the
// wire form minus the "$DATA" type suffix.
func splitStream(raw string) (path, stream string) {
	idx := strings.IndexByte(raw, ':')
	if idx < 0 {
		return raw, ""
	}
	path = raw[:idx]
	rest := raw[idx:] // includes the leading ':'

	const dataSuffix = ":$DATA"
	if len(rest) >= len(dataSuffix) && strings.EqualFold(rest[len(rest)-len(dataSuffix):], dataSuffix) {
		rest = rest[:len(rest)-len(dataSuffix)]
	}

	if rest == "" || rest == ":" {
		return path, ""
	}
	return path, rest
}

// anchorToRoot ensures the path carries a leading separator.
func anchorToRoot(path string) string {
	if path == "" {
		return "\\"
	}
	if path[0] != '\\' && path[0] != '/' {
		return "\\" + path
	}
	return path
}

func normalizeBase(rawPath string) (path, stream string) {
	path, stream = splitStream(rawPath)
	return anchorToRoot(path), stream
}

func finalizeAttributes(attr Attributes, createOption uint32) Attributes {
	if createOption&CreateOptionDirectoryFile != 0 {
		attr |= AttrDirectory
	}
	return attr
}

// NewOpenParamsFromNT builds OpenParams from an NT CreateAndX / SMB2 Create
// request, which already carries the NT access mask, sharing enum and
// disposition verbatim.
func NewOpenParamsFromNT(rawPath string, access AccessMask, sharing SharingMode, disposition Disposition, attr Attributes, createOption uint32, oplock oplockRequestBits) *OpenParams {
	path, stream := normalizeBase(rawPath)
	return &OpenParams{
		Path:         path,
		Stream:       stream,
		Access:       access,
		Sharing:      sharing,
		Disposition:  disposition,
		Attributes:   finalizeAttributes(attr, createOption),
		CreateOption: createOption,
		Oplock:       resolveOplockRequest(oplock),
	}
}

// NewOpenParamsFromLanMan builds OpenParams from a LanMan OpenAndX request.
// access is the low 3 bits of the OpenAndX AccessMode word (mode in the low
// 2 bits, plus any implied execute bit the caller has already resolved into
// a legacyAccessMode); sharing is the corresponding 3-bit sharing field, and
// action is the 16-bit OpenAndX "FileAction" word the §4.1 table keys on.
func NewOpenParamsFromLanMan(rawPath string, accessMode legacyAccessMode, sharingMode legacySharingMode, action uint16, attr Attributes, createOption uint32) *OpenParams {
	path, stream := normalizeBase(rawPath)
	disposition := dispositionFromLegacyAction(legacyFileAction(action & 0x13))
	return &OpenParams{
		Path:         path,
		Stream:       stream,
		Access:       ntAccessFromLegacy(accessMode),
		Sharing:      ntSharingFromLegacy(sharingMode),
		Disposition:  disposition,
		Attributes:   finalizeAttributes(attr, createOption),
		CreateOption: createOption,
		Oplock:       OplockNone,
	}
}

// NewOpenParamsFromCore builds OpenParams from a legacy Core-protocol SMB_COM_OPEN,
// which carries only a 2-bit access mode and a 3-bit sharing mode, no disposition
// (Core open always targets an existing file) and no create options.
func NewOpenParamsFromCore(rawPath string, accessMode legacyAccessMode, sharingMode legacySharingMode, attr Attributes) *OpenParams {
	path, stream := normalizeBase(rawPath)
	return &OpenParams{
		Path:        path,
		Stream:      stream,
		Access:      ntAccessFromLegacy(accessMode),
		Sharing:     ntSharingFromLegacy(sharingMode),
		Disposition: DispositionOpen,
		Attributes:  attr,
		Oplock:      OplockNone,
	}
}

// IsReadOnlyAccess preserves the literal (and, per spec.md §9 Open Question,
// intentionally unusual) truth table from the source: it is true whenever
// NTReadWrite == NTRead would hold for the masked-down access, i.e. when the
// request's access bits reduce to exactly the read-only composite mask.
func (p *OpenParams) IsReadOnlyAccess() bool {
	masked := p.Access & NTReadWrite
	return masked == NTRead
}

// IsWriteOnlyAccess is true iff the request carries write data access but no
// read or execute data access.
func (p *OpenParams) IsWriteOnlyAccess() bool {
	return p.Access.Any(AccessWrite|AccessAppend) && !p.Access.Any(AccessRead|AccessExecute)
}

// IsReadWriteAccess is true iff both read and write composite bits are present.
func (p *OpenParams) IsReadWriteAccess() bool {
	return p.Access&NTReadWrite == NTReadWrite
}

// IsAttributesOnlyAccess is true iff no data-access bits (Read/Write/Append/Execute)
// are set and at least one of ReadAttrib/WriteAttrib is.
func (p *OpenParams) IsAttributesOnlyAccess() bool {
	const dataBits = AccessRead | AccessWrite | AccessAppend | AccessExecute
	if p.Access.Any(dataBits) {
		return false
	}
	return p.Access.Any(AccessReadAttributes | AccessWriteAttributes)
}

// IsOverwrite reports whether this open truncates an existing target.
func (p *OpenParams) IsOverwrite() bool { return p.Disposition.IsOverwrite() }

// IsDeleteOnClose reports the delete-on-close create option.
func (p *OpenParams) IsDeleteOnClose() bool {
	return p.CreateOption&CreateOptionDeleteOnClose != 0 || p.Attributes&AttrDeleteOnClose != 0
}

// IsSequentialAccessOnly reports the sequential-scan hint.
func (p *OpenParams) IsSequentialAccessOnly() bool {
	return p.CreateOption&CreateOptionSequentialOnly != 0 || p.Attributes&AttrSequentialScan != 0
}

// IsWriteThrough reports the write-through hint.
func (p *OpenParams) IsWriteThrough() bool {
	return p.CreateOption&CreateOptionWriteThrough != 0 || p.Attributes&AttrWriteThrough != 0
}

// IsDirectory reports whether the normalized attributes carry the directory bit.
func (p *OpenParams) IsDirectory() bool { return p.Attributes&AttrDirectory != 0 }

// HasStream reports whether the open targets an alternate data stream.
func (p *OpenParams) HasStream() bool { return p.Stream != "" }
