package segment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mib = 1024 * 1024

// TestStreamedReadAhead exercises §8 scenario 4: a 10 MiB file, 2 MiB pages,
// 4 slots, and a 32 KiB short-read threshold. The first sequential 64 KiB
// read at offset 0 reports Loadable and triggers a page fetch; after reading
// past 2 MiB the first page is purged.
func TestStreamedReadAhead(t *testing.T) {
	s := NewStreamed(1, 2*mib, 4, 32*1024)
	s.SetFileLength(10 * mib)

	require.Equal(t, ResultLoadable, s.HasDataFor(0, 64*1024))

	s.BeginSequentialLoad()
	s.CompleteLoad(0, make([]byte, 2*mib), false, false)

	buf := make([]byte, 64*1024)
	for off := uint64(0); off < 2*mib; off += 64 * 1024 {
		require.True(t, s.WaitForData(time.Time{}, off, 64*1024))
		n := s.ReadAt(buf, off)
		assert.Equal(t, len(buf), n)
	}

	assert.Equal(t, 2*uint64(mib), s.readCursor)
	assert.Empty(t, s.rx, "page 0..2MiB should be purged once fully consumed")
}

// TestStreamedOutOfSequenceRead exercises §8 scenario 5: after sequentially
// reading to 4 MiB, a 32 KiB read at 9 MiB is out-of-sequence and the loaded
// buffer is retained (short read); a later 256 KiB sequential read at 6 MiB
// is unaffected.
func TestStreamedOutOfSequenceRead(t *testing.T) {
	s := NewStreamed(1, 2*mib, 4, 64*1024)
	s.SetFileLength(10 * mib)
	s.readCursor = 4 * mib

	result := s.HasDataFor(9*mib, 32*1024)
	assert.Equal(t, ResultLoadableOutOfSeq, result)

	s.CompleteLoad(9*mib, make([]byte, 32*1024), true, true)
	require.Len(t, s.outOfSeq, 1)

	buf := make([]byte, 32*1024)
	n := s.ReadAt(buf, 9*mib)
	assert.Equal(t, len(buf), n)
	// short read: the out-of-sequence page survives being fully consumed.
	assert.Len(t, s.outOfSeq, 1)

	result2 := s.HasDataFor(6*mib, 256*1024)
	assert.Equal(t, ResultLoadable, result2)
}

// TestStreamedWriteBackpressure exercises §8 scenario 6: with all 4 tx
// slots full and the head unsaved, a further write returns MaxBuffers;
// saving the head advances nextWriteOffset and wakes a waiter.
func TestStreamedWriteBackpressure(t *testing.T) {
	s := NewStreamed(1, 2*mib, 4, 64*1024)
	data := make([]byte, 2*mib)

	for i := 0; i < 4; i++ {
		res, n := s.WriteAt(data, uint64(i)*2*mib)
		require.Equal(t, WriteSaveable, res)
		require.Equal(t, len(data), n)
	}

	res, n := s.WriteAt(data, 8*mib)
	assert.Equal(t, WriteMaxBuffers, res)
	assert.Equal(t, 0, n)

	woke := make(chan struct{})
	go func() {
		ok := s.WaitForWriteBuffer()
		if ok {
			close(woke)
		}
	}()

	off, buf, ok := s.DataToSave(false)
	require.True(t, ok)
	assert.Equal(t, uint64(0), off)
	assert.Equal(t, data, buf)

	s.DataSaved(off)
	assert.Equal(t, uint64(2*mib), s.NextWriteOffset())

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken after DataSaved")
	}
}

// TestStreamedWriteRejectsBelowNextWriteOffset checks the out-of-sequence
// write rejection the streamed model specifies.
func TestStreamedWriteRejectsBelowNextWriteOffset(t *testing.T) {
	s := NewStreamed(1, 2*mib, 4, 64*1024)
	data := make([]byte, 1024)
	_, _ = s.WriteAt(data, 0)
	s.nextWriteOffset = 2 * mib

	res, n := s.WriteAt(data, 100)
	assert.Equal(t, WriteRejected, res)
	assert.Equal(t, 0, n)
}

func TestStreamedTruncateToZero(t *testing.T) {
	s := NewStreamed(1, 2*mib, 4, 64*1024)
	s.SetFileLength(10 * mib)
	s.CompleteLoad(0, make([]byte, 2*mib), false, false)

	s.Truncate(0)
	assert.Equal(t, uint64(0), s.FileLength())
	assert.Empty(t, s.rx)
}
