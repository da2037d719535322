package gameheader

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/posdb/chessposdb/pkg/errors"
	"github.com/posdb/chessposdb/pkg/filesys"
)

const (
	headerFileName = "header"
	indexFileName  = "index"
)

// Store is an append-only game header blob plus its offset index,
// rooted at one directory (original_source's IndexedGameHeaderStorage,
// spec §4.7).
type Store struct {
	mu sync.RWMutex

	dir        string
	headerPath string
	indexPath  string

	headerFile *os.File
	headerBuf  *bufio.Writer
	indexFile  *os.File

	offsets []uint64 // offsets[i] is where game id i's record starts
	log     *zap.SugaredLogger
}

// Open opens (creating if absent) the header store rooted at dir,
// replaying the index file to recover in-memory offsets.
func Open(dir string, log *zap.SugaredLogger) (*Store, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := filesys.CreateDir(dir, 0o755, false); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create header store directory").WithPath(dir)
	}

	headerPath := filepath.Join(dir, headerFileName)
	indexPath := filepath.Join(dir, indexFileName)

	headerFile, err := os.OpenFile(headerPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open header file").WithPath(headerPath)
	}
	indexFile, err := os.OpenFile(indexPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		headerFile.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open index file").WithPath(indexPath)
	}

	offsets, err := readOffsets(indexFile)
	if err != nil {
		headerFile.Close()
		indexFile.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read header index").WithPath(indexPath)
	}

	return &Store{
		dir: dir, headerPath: headerPath, indexPath: indexPath,
		headerFile: headerFile, headerBuf: bufio.NewWriter(headerFile), indexFile: indexFile,
		offsets: offsets, log: log,
	}, nil
}

func readOffsets(f *os.File) ([]uint64, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	n := stat.Size() / 8
	offsets := make([]uint64, 0, n)
	raw := make([]byte, 8)
	for i := int64(0); i < n; i++ {
		if _, err := io.ReadFull(f, raw); err != nil {
			return nil, err
		}
		offsets = append(offsets, binary.LittleEndian.Uint64(raw))
	}
	if _, err := f.Seek(0, 2); err != nil {
		return nil, err
	}
	return offsets, nil
}

// NextGameID returns the id the next addGame call will be assigned.
func (s *Store) NextGameID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.offsets))
}

// NextGameOffset returns the byte offset the next record will start
// at.
func (s *Store) NextGameOffset() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextOffsetLocked()
}

func (s *Store) nextOffsetLocked() uint64 {
	return s.currentWriteOffsetLocked()
}

// AddGame appends h's encoding (h.GameIndex is overwritten with the
// assigned id) and records its offset, returning where it landed.
func (s *Store) AddGame(h Header) (Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uint64(len(s.offsets))
	offset := s.currentWriteOffsetLocked()
	h.GameIndex = id

	rec := encode(h)
	if _, err := s.headerBuf.Write(rec); err != nil {
		return Location{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append game header").WithPath(s.headerPath)
	}

	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], offset)
	if _, err := s.indexFile.Write(tmp[:]); err != nil {
		return Location{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append header index entry").WithPath(s.indexPath)
	}

	s.offsets = append(s.offsets, offset)
	return Location{Offset: offset, Index: id}, nil
}

func (s *Store) currentWriteOffsetLocked() uint64 {
	stat, err := s.headerFile.Stat()
	if err != nil {
		return 0
	}
	return uint64(stat.Size()) + uint64(s.headerBuf.Buffered())
}

// Flush persists buffered header writes to disk.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.headerBuf.Flush(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush header store").WithPath(s.headerPath)
	}
	return s.headerFile.Sync()
}

// NumGames returns the number of headers stored.
func (s *Store) NumGames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.offsets))
}

// QueryByIndices resolves a batch of game ids into their headers, in
// the order requested. An out-of-range index is reported as an error
// rather than silently skipped, since it indicates an inconsistency
// between a run file's recorded game index and this store.
func (s *Store) QueryByIndices(ids []uint64) ([]Header, error) {
	offsets := make([]uint64, len(ids))
	s.mu.RLock()
	for i, id := range ids {
		if id >= uint64(len(s.offsets)) {
			s.mu.RUnlock()
			return nil, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "game index out of range").WithPath(s.headerPath)
		}
		offsets[i] = s.offsets[id]
	}
	s.mu.RUnlock()
	return s.QueryByOffsets(offsets)
}

// QueryByOffsets decodes one header record per given byte offset.
func (s *Store) QueryByOffsets(offsets []uint64) ([]Header, error) {
	s.mu.Lock()
	if err := s.headerBuf.Flush(); err != nil {
		s.mu.Unlock()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to flush header store before read").WithPath(s.headerPath)
	}
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Header, 0, len(offsets))
	for _, off := range offsets {
		h, err := s.readAt(int64(off))
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *Store) readAt(offset int64) (Header, error) {
	stat, err := s.headerFile.Stat()
	if err != nil {
		return Header{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat header file").WithPath(s.headerPath)
	}
	remaining := stat.Size() - offset
	if remaining <= 0 {
		return Header{}, errors.NewStorageError(nil, errors.ErrorCodeSegmentCorrupted, "header offset beyond end of file").WithPath(s.headerPath).WithOffset(int(offset))
	}

	buf := make([]byte, remaining)
	if _, err := s.headerFile.ReadAt(buf, offset); err != nil {
		return Header{}, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to read header record").WithPath(s.headerPath).WithOffset(int(offset))
	}

	h, _, err := decode(buf)
	if err != nil {
		return Header{}, errors.NewStorageError(err, errors.ErrorCodeSegmentCorrupted, "failed to decode header record").WithPath(s.headerPath).WithOffset(int(offset))
	}
	return h, nil
}

// Clear truncates both files and forgets every offset.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.headerFile.Truncate(0); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to truncate header file").WithPath(s.headerPath)
	}
	if _, err := s.headerFile.Seek(0, 0); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek header file").WithPath(s.headerPath)
	}
	if err := s.indexFile.Truncate(0); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to truncate index file").WithPath(s.indexPath)
	}
	if _, err := s.indexFile.Seek(0, 0); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek index file").WithPath(s.indexPath)
	}

	s.headerBuf = bufio.NewWriter(s.headerFile)
	s.offsets = s.offsets[:0]
	return nil
}

// ReplicateTo copies both files into another directory, flushing
// first so the copy is consistent.
func (s *Store) ReplicateTo(dir string) error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := filesys.CreateDir(dir, 0o755, false); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create replica directory").WithPath(dir)
	}
	if err := filesys.CopyFile(s.headerPath, filepath.Join(dir, headerFileName)); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to replicate header file").WithPath(dir)
	}
	if err := filesys.CopyFile(s.indexPath, filepath.Join(dir, indexFileName)); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to replicate index file").WithPath(dir)
	}
	return nil
}

// Close flushes and releases both file handles.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.headerFile.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to close header file").WithPath(s.headerPath)
	}
	return s.indexFile.Close()
}
