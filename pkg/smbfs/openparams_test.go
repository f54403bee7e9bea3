package smbfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStream(t *testing.T) {
	cases := []struct {
		name       string
		raw        string
		wantPath   string
		wantStream string
	}{
		{"no stream marker", `\dir\file.txt`, `\dir\file.txt`, ""},
		{"bare main stream dropped", `\dir\file.txt::$DATA`, `\dir\file.txt`, ""},
		{"named stream strips $DATA suffix", `\dir\file.txt:stream:$DATA`, `\dir\file.txt`, ":stream"},
		{"named stream without suffix", `\dir\file.txt:stream`, `\dir\file.txt`, ":stream"},
		{"trailing bare colon", `\dir\file.txt:`, `\dir\file.txt`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path, stream := splitStream(tc.raw)
			assert.Equal(t, tc.wantPath, path)
			assert.Equal(t, tc.wantStream, stream)
		})
	}
}

// TestLegacyOpenMapping exercises the §8 scenario 1 literal end-to-end case:
// LanMan OpenAndX with access=0x0042 (ReadWrite + DenyWrite),
// action=0x0011 (CreateNotExist | OpenIfExists) on a named-stream path.
func TestLegacyOpenMapping(t *testing.T) {
	params := NewOpenParamsFromLanMan(
		`\dir\file.txt:stream:$DATA`,
		LegacyAccessReadWrite,
		LegacySharingDenyWrite,
		0x0011,
		0,
		0,
	)

	require.NotNil(t, params)
	assert.Equal(t, `\dir\file.txt`, params.Path)
	assert.Equal(t, ":stream", params.Stream)
	assert.Equal(t, NTReadWrite, params.Access)
	assert.Equal(t, SharingRead, params.Sharing)
	assert.Equal(t, DispositionOpenIf, params.Disposition)
}

func TestLegacyDispositionFallback(t *testing.T) {
	// An action word with no table entry must fall back to Open, per the
	// §9 Open Question: callers must not depend on any other fallback.
	d := dispositionFromLegacyAction(legacyFileAction(0x7F))
	assert.Equal(t, DispositionOpen, d)
}

func TestSharingModeMapping(t *testing.T) {
	assert.Equal(t, SharingNone, ntSharingFromLegacy(LegacySharingExclusive))
	assert.Equal(t, SharingWrite, ntSharingFromLegacy(LegacySharingDenyRead))
	assert.Equal(t, SharingRead, ntSharingFromLegacy(LegacySharingDenyWrite))
	assert.Equal(t, SharingReadWrite, ntSharingFromLegacy(LegacySharingDenyNone))
	assert.Equal(t, SharingReadWrite, ntSharingFromLegacy(LegacySharingCompat))
}

func TestIsAttributesOnlyAccess(t *testing.T) {
	p := &OpenParams{Access: AccessReadAttributes}
	assert.True(t, p.IsAttributesOnlyAccess())

	p2 := &OpenParams{Access: AccessReadAttributes | AccessRead}
	assert.False(t, p2.IsAttributesOnlyAccess())
}

func TestCreateDirectoryForcesAttribute(t *testing.T) {
	p := NewOpenParamsFromNT(`\newdir`, NTRead, SharingReadWrite, DispositionCreate, 0, CreateOptionDirectoryFile, oplockRequestBits{})
	assert.True(t, p.IsDirectory())
}

func TestOplockPriority(t *testing.T) {
	assert.Equal(t, OplockBatch, resolveOplockRequest(oplockRequestBits{Batch: true, Exclusive: true, LevelII: true}))
	assert.Equal(t, OplockExclusive, resolveOplockRequest(oplockRequestBits{Exclusive: true, LevelII: true}))
	assert.Equal(t, OplockLevelII, resolveOplockRequest(oplockRequestBits{LevelII: true}))
	assert.Equal(t, OplockNone, resolveOplockRequest(oplockRequestBits{}))
}
