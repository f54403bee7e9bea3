package handle

import (
	"encoding/binary"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ComposeUniqueID builds the "(did<<32)|fid" unique id variant (spec.md §3)
// for drivers that key file state off the directory/file id pair a legacy
// backend already hands back.
func ComposeUniqueID(did, fid uint32) uint64 {
	return uint64(did)<<32 | uint64(fid)
}

// UniqueIDFromPath builds the uppercased-path-hash unique id variant
// (spec.md §3) for drivers with no stable did/fid pair, e.g. a
// content-addressed or case-insensitive backing store. The path is
// uppercased first so two NetworkFiles opened via differently-cased
// paths to the same file collapse onto one FileState/segment binding.
func UniqueIDFromPath(path string) uint64 {
	sum := blake2b.Sum256([]byte(strings.ToUpper(path)))
	return binary.BigEndian.Uint64(sum[:8])
}
