package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeUniqueID(t *testing.T) {
	assert.Equal(t, uint64(0x0000000100000002), ComposeUniqueID(1, 2))
	assert.Equal(t, uint64(0), ComposeUniqueID(0, 0))
}

func TestUniqueIDFromPathIsCaseInsensitiveAndStable(t *testing.T) {
	a := UniqueIDFromPath(`\share\docs\report.txt`)
	b := UniqueIDFromPath(`\SHARE\DOCS\REPORT.TXT`)
	assert.Equal(t, a, b, "case must not affect the derived id")

	c := UniqueIDFromPath(`\share\docs\report2.txt`)
	assert.NotEqual(t, a, c)

	assert.Equal(t, a, UniqueIDFromPath(`\share\docs\report.txt`), "must be deterministic")
}
