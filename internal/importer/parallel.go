package importer

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/posdb/chessposdb/internal/format"
)

// minBytesPerMove is the conservative lower bound on how many source
// bytes one ply can take, used to bound the number of entries a block
// could possibly emit (spec §4.6: "4 for PGN and 1 for BCGN").
func minBytesPerMove(t format.FileType) uint64 {
	if t == format.FileTypeBCGN {
		return 1
	}
	return 4
}

// block is one contiguous, roughly-byte-equal slice of the input file
// list assigned to one parallel worker.
type block struct {
	files    []FileSpec
	bytes    uint64
	idOffset uint64
	idBudget uint64
	baseID   uint64
}

// planBlocks divides files into numWorkers contiguous blocks sized to
// equalize total bytes (spec §4.6 parallel strategy), and assigns each
// a base file-id offset plus an id budget equal to the conservative
// ceiling of `blockBytes / (bufferEntries * minBytesPerMove)`, the
// number of full buffers (run files) it could possibly produce —
// enough ids that no two blocks' auto-incrementing workers ever collide.
func planBlocks(files []FileSpec, numWorkers int, bufferEntries int, startID uint64) ([]block, error) {
	if numWorkers <= 0 {
		return nil, fmt.Errorf("importer: numWorkers must be positive")
	}

	sizes := make([]uint64, len(files))
	var total uint64
	for i, fs := range files {
		info, err := os.Stat(fs.Path)
		if err != nil {
			return nil, fmt.Errorf("importer: stat %s: %w", fs.Path, err)
		}
		sizes[i] = uint64(info.Size())
		total += sizes[i]
	}

	if numWorkers > len(files) {
		numWorkers = len(files)
	}
	if numWorkers == 0 {
		return nil, nil
	}
	target := total / uint64(numWorkers)
	if target == 0 {
		target = 1
	}

	blocks := make([]block, 0, numWorkers)
	var cur block
	var curBytes uint64
	for i, fs := range files {
		cur.files = append(cur.files, fs)
		curBytes += sizes[i]
		lastBlock := len(blocks) == numWorkers-1
		if curBytes >= target && !lastBlock && i != len(files)-1 {
			cur.bytes = curBytes
			blocks = append(blocks, cur)
			cur = block{}
			curBytes = 0
		}
	}
	if len(cur.files) > 0 {
		cur.bytes = curBytes
		blocks = append(blocks, cur)
	}

	id := startID
	for i := range blocks {
		maxBytesPerMove := minBytesPerMove(format.FileTypePGN)
		for _, fs := range blocks[i].files {
			if m := minBytesPerMove(fs.Type); m < maxBytesPerMove {
				maxBytesPerMove = m
			}
		}
		budget := ceilDiv(blocks[i].bytes, uint64(bufferEntries)*maxBytesPerMove)
		if budget == 0 {
			budget = 1
		}
		blocks[i].baseID = id
		blocks[i].idBudget = budget
		blocks[i].idOffset = id
		id += budget
	}

	return blocks, nil
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return (a + b - 1) / b
}

// ImportParallel runs spec §4.6's parallel strategy: the file list is
// split into numWorkers contiguous byte-balanced blocks, each
// preassigned a non-overlapping id range so workers never need to
// coordinate on file ids, then every block is imported concurrently
// with its own buffer. Completion (pipeline drain, header flush) runs
// once after every worker has finished.
func (imp *Importer) ImportParallel(ctx context.Context, files []FileSpec, numWorkers int) (Stats, error) {
	blocks, err := planBlocks(files, numWorkers, imp.opts.BufferEntries, imp.partition.NextID())
	if err != nil {
		return Stats{}, err
	}

	statsPerBlock := make([]Stats, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range blocks {
		i, b := i, b
		g.Go(func() error {
			next := b.idOffset
			end := b.baseID + b.idBudget
			nextID := func() (uint64, bool) {
				if next >= end {
					imp.log.Warnw("importer: parallel block exceeded its id budget, falling back to auto-assignment", "block", i)
					return 0, false
				}
				id := next
				next++
				return id, true
			}
			s, err := imp.importFiles(gctx, b.files, nextID)
			statsPerBlock[i] = s
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	var total Stats
	for _, s := range statsPerBlock {
		total.Add(s)
	}

	if err := imp.Finish(ctx); err != nil {
		return total, err
	}
	return total, nil
}
