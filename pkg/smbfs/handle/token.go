// Package handle implements the per-handle state and the per-tree open-file
// registry: NetworkFile, AccessToken, and the array/hashed OpenFileMap
// variants described in spec.md §4.2 and §3 ("Entity lifecycles").
package handle

import (
	"github.com/google/uuid"

	"github.com/dittofs-core/smbcore/pkg/smbfs"
)

// AccessToken is the identity + (access, sharing, attributes-only) tuple
// issued by the sharing-mode check at open time. It is returned to the
// caller and released on close; a token that is never released is a
// programming error and should be logged by the caller that owns it.
type AccessToken struct {
	// ID uniquely identifies the token for diagnostics (e.g. "N tokens leaked").
	ID uuid.UUID

	// Identity is an opaque caller-supplied principal (session/user id string).
	Identity string

	Access         smbfs.AccessMask
	Sharing        smbfs.SharingMode
	AttributesOnly bool
	released       bool
}

// NewAccessToken issues a token for the given identity and resolved access/sharing.
func NewAccessToken(identity string, access smbfs.AccessMask, sharing smbfs.SharingMode, attributesOnly bool) *AccessToken {
	return &AccessToken{
		ID:             uuid.New(),
		Identity:       identity,
		Access:         access,
		Sharing:        sharing,
		AttributesOnly: attributesOnly,
	}
}

// Release marks the token released. Idempotent.
func (t *AccessToken) Release() { t.released = true }

// Released reports whether Release has been called.
func (t *AccessToken) Released() bool { return t.released }
