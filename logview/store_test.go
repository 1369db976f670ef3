package logview

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{Text: "hello", Time: time.Date(2024, 3, 9, 14, 5, 59, 0, time.Local), User: true},
		{Text: "", Time: time.Date(1999, 12, 31, 23, 59, 0, 0, time.Local)},
		{Text: "multi\nline ✓ ünïcode", Time: time.Date(2030, 1, 1, 0, 0, 1, 0, time.Local), User: true},
	}
}

func requireSameRecords(t *testing.T, want, got []Record) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Text, got[i].Text, "record %d text", i)
		assert.Equal(t, want[i].User, got[i].User, "record %d user", i)
		assert.True(t, want[i].Time.Equal(got[i].Time), "record %d time: want %v, got %v", i, want[i].Time, got[i].Time)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleRecords()))
	got, err := Decode(&buf)
	require.NoError(t, err)
	requireSameRecords(t, sampleRecords(), got)
}

func TestEncode_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleRecords()[:1]))
	b := buf.Bytes()
	// count, length, text, six int32, user byte
	require.Len(t, b, 8+8+5+6*4+1)
	assert.Equal(t, uint64(1), binary.LittleEndian.Uint64(b[0:8]))
	assert.Equal(t, uint64(5), binary.LittleEndian.Uint64(b[8:16]))
	assert.Equal(t, "hello", string(b[16:21]))
	assert.Equal(t, uint32(2024), binary.LittleEndian.Uint32(b[21:25]))
	assert.Equal(t, uint32(59), binary.LittleEndian.Uint32(b[41:45]))
	assert.Equal(t, byte(1), b[45])
}

func TestDecode_EmptyInput(t *testing.T) {
	got, err := Decode(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_TruncatedKeepsParsedRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleRecords()))
	b := buf.Bytes()
	got, err := Decode(bytes.NewReader(b[:len(b)-10]))
	require.ErrorIs(t, err, ErrTruncated)
	requireSameRecords(t, sampleRecords()[:2], got)
}

func TestDecode_BadLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(1<<40)))
	got, err := Decode(&buf)
	require.ErrorIs(t, err, ErrBadLength)
	assert.Empty(t, got)
}

func TestDecode_TrailingBytesAreALengthMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sampleRecords()))
	buf.WriteString("junk")
	got, err := Decode(&buf)
	require.ErrorIs(t, err, ErrBadLength)
	requireSameRecords(t, sampleRecords(), got)
}

func TestFileStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "log.bin")
	s := NewFileStore(path)

	recs, err := s.Load()
	require.NoError(t, err, "missing file is an empty log")
	assert.Empty(t, recs)

	require.NoError(t, s.Save(sampleRecords()))
	recs, err = s.Load()
	require.NoError(t, err)
	requireSameRecords(t, sampleRecords(), recs)

	require.NoError(t, s.Save(sampleRecords()[:1]))
	recs, err = s.Load()
	require.NoError(t, err)
	requireSameRecords(t, sampleRecords()[:1], recs)
	assert.NoFileExists(t, path+".tmp")
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	s, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "log.db"))
	require.NoError(t, err)
	defer s.Close()

	recs, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, recs)

	require.NoError(t, s.Save(sampleRecords()))
	recs, err = s.Load()
	require.NoError(t, err)
	requireSameRecords(t, sampleRecords(), recs)

	require.NoError(t, s.Save(sampleRecords()[2:]))
	recs, err = s.Load()
	require.NoError(t, err)
	requireSameRecords(t, sampleRecords()[2:], recs)
}
