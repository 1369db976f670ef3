package logview

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Record is the persisted form of an entry. Times keep second precision.
type Record struct {
	Text string
	Time time.Time
	User bool
}

// Store saves and loads the whole log at once.
type Store interface {
	Load() ([]Record, error)
	Save(recs []Record) error
}

var (
	ErrTruncated = errors.New("log file truncated")
	ErrBadLength = errors.New("log file length mismatch")
)

// maxTextLen caps a single record so a corrupt length cannot allocate
// unbounded memory.
const maxTextLen = 1 << 24

// recordStamp is the fixed-size tail of a record.
type recordStamp struct {
	Year, Month, Day     int32
	Hour, Minute, Second int32
	User                 uint8
}

// Encode writes recs in the flat log format: a uint64 count, then per record
// a uint64 byte length, the text, six int32 time fields and a user byte.
// Everything is little-endian.
func Encode(w io.Writer, recs []Record) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(recs))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, rec := range recs {
		if err := binary.Write(w, binary.LittleEndian, uint64(len(rec.Text))); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
		if _, err := io.WriteString(w, rec.Text); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
		t := rec.Time
		st := recordStamp{
			Year: int32(t.Year()), Month: int32(t.Month()), Day: int32(t.Day()),
			Hour: int32(t.Hour()), Minute: int32(t.Minute()), Second: int32(t.Second()),
		}
		if rec.User {
			st.User = 1
		}
		if err := binary.Write(w, binary.LittleEndian, &st); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	return nil
}

// Decode reads the flat log format. On malformed input it returns the records
// read so far together with ErrTruncated or ErrBadLength.
func Decode(r io.Reader) ([]Record, error) {
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read count: %w", ErrTruncated)
	}
	recs := make([]Record, 0, min(count, 1024))
	for i := uint64(0); i < count; i++ {
		var n uint64
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return recs, fmt.Errorf("record %d: %w", i, ErrTruncated)
		}
		if n > maxTextLen {
			return recs, fmt.Errorf("record %d: text of %d bytes: %w", i, n, ErrBadLength)
		}
		text := make([]byte, n)
		if _, err := io.ReadFull(r, text); err != nil {
			return recs, fmt.Errorf("record %d: %w", i, ErrTruncated)
		}
		var st recordStamp
		if err := binary.Read(r, binary.LittleEndian, &st); err != nil {
			return recs, fmt.Errorf("record %d: %w", i, ErrTruncated)
		}
		recs = append(recs, Record{
			Text: string(text),
			Time: time.Date(int(st.Year), time.Month(st.Month), int(st.Day),
				int(st.Hour), int(st.Minute), int(st.Second), 0, time.Local),
			User: st.User != 0,
		})
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return recs, fmt.Errorf("data after %d records: %w", count, ErrBadLength)
	}
	return recs, nil
}

// FileStore keeps the log in one file, replaced atomically on every save.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore { return &FileStore{Path: path} }

// Load returns no records and no error when the file does not exist yet.
func (s *FileStore) Load() ([]Record, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}

func (s *FileStore) Save(recs []Record) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
	}
	tmpPath := s.Path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := Encode(w, recs); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("flush log: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close log: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename log: %w", err)
	}
	return nil
}
