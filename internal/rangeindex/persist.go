package rangeindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/posdb/chessposdb/internal/key"
	"github.com/posdb/chessposdb/pkg/filesys"
)

// magic tags the on-disk index file format so a garbled or
// foreign file is rejected rather than silently misread.
const magic uint32 = 0x50584944 // "PXID"

const fileVersion uint32 = 1

// header is the fixed-size preamble of an index sibling file.
type header struct {
	Magic       uint32
	Version     uint32
	Granularity uint32
	EntrySize   int64
	EntryCount  int64
	SampleCount int64
}

const headerSize = 4 + 4 + 4 + 8 + 8 + 8

// Persist writes the index to path (typically `<id>_index` beside the
// run file's data, spec §4.2) atomically.
func Persist(path string, ri *RangeIndex) error {
	samples, entryCount := ri.samplesSnapshot()

	buf := make([]byte, 0, headerSize+len(samples)*20)
	h := header{
		Magic:       magic,
		Version:     fileVersion,
		Granularity: uint32(ri.granularity),
		EntrySize:   ri.entrySize,
		EntryCount:  entryCount,
		SampleCount: int64(len(samples)),
	}
	buf = appendHeader(buf, h)
	for _, s := range samples {
		buf = appendSample(buf, s)
	}

	return filesys.AtomicWriteFile(path, buf, 0o644)
}

func appendHeader(buf []byte, h header) []byte {
	var tmp [headerSize]byte
	binary.LittleEndian.PutUint32(tmp[0:4], h.Magic)
	binary.LittleEndian.PutUint32(tmp[4:8], h.Version)
	binary.LittleEndian.PutUint32(tmp[8:12], h.Granularity)
	binary.LittleEndian.PutUint64(tmp[12:20], uint64(h.EntrySize))
	binary.LittleEndian.PutUint64(tmp[20:28], uint64(h.EntryCount))
	binary.LittleEndian.PutUint64(tmp[28:36], uint64(h.SampleCount))
	return append(buf, tmp[:]...)
}

func appendSample(buf []byte, s Sample) []byte {
	var tmp [20]byte
	binary.LittleEndian.PutUint64(tmp[0:8], s.Key.Hash)
	binary.LittleEndian.PutUint32(tmp[8:12], s.Key.Word2)
	binary.LittleEndian.PutUint64(tmp[12:20], uint64(s.Offset))
	return append(buf, tmp[:]...)
}

// Load reads an index sibling file written by Persist.
func Load(path string, log *zap.SugaredLogger) (*RangeIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rangeindex: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var raw [headerSize]byte
	if _, err := readFull(r, raw[:]); err != nil {
		return nil, fmt.Errorf("rangeindex: read header of %s: %w", path, err)
	}

	h := header{
		Magic:       binary.LittleEndian.Uint32(raw[0:4]),
		Version:     binary.LittleEndian.Uint32(raw[4:8]),
		Granularity: binary.LittleEndian.Uint32(raw[8:12]),
		EntrySize:   int64(binary.LittleEndian.Uint64(raw[12:20])),
		EntryCount:  int64(binary.LittleEndian.Uint64(raw[20:28])),
		SampleCount: int64(binary.LittleEndian.Uint64(raw[28:36])),
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("rangeindex: %s is not a range index file", path)
	}
	if h.Version != fileVersion {
		return nil, fmt.Errorf("rangeindex: %s has unsupported version %d", path, h.Version)
	}

	samples := make([]Sample, h.SampleCount)
	var sampleBuf [20]byte
	for i := int64(0); i < h.SampleCount; i++ {
		if _, err := readFull(r, sampleBuf[:]); err != nil {
			return nil, fmt.Errorf("rangeindex: read sample %d of %s: %w", i, path, err)
		}
		samples[i] = Sample{
			Key: key.Key{
				Hash:  binary.LittleEndian.Uint64(sampleBuf[0:8]),
				Word2: binary.LittleEndian.Uint32(sampleBuf[8:12]),
			},
			Offset: int64(binary.LittleEndian.Uint64(sampleBuf[12:20])),
		}
	}

	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ri := New(Config{Granularity: int(h.Granularity), EntrySize: h.EntrySize, Logger: log})
	ri.samples = samples
	ri.entryCount = h.EntryCount
	return ri, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := r.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
