// Package db implements the on-disk tier value-array store (spec.md
// §4.G): blocked-gzip value arrays under internal/db/mgz, a `.lookup`
// seek index sidecar, and a `.stat` sidecar whose presence and size are
// the commit marker for a successful solve. It implements solver.DB.
package db

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/herohde/xiangqisolve/internal/db/mgz"
	"github.com/herohde/xiangqisolve/internal/solver"
)

// statRecordSize is the `.stat` sidecar's fixed size: eight little-
// endian u64 fields (spec.md §6).
const statRecordSize = 8 * 8

// dirPrefixLen is how many leading characters of a tier string name its
// containing directory, capping entries per directory (spec.md §4.G).
const dirPrefixLen = 12

// Store is a filesystem-backed solver.DB rooted at a data directory.
type Store struct {
	root      string
	blockSize int
}

// Option configures a Store.
type Option func(*Store)

// WithBlockSize overrides the default 1 MiB mgz block size.
func WithBlockSize(n int) Option {
	return func(s *Store) {
		s.blockSize = n
	}
}

// New returns a Store rooted at root (created if absent, mode 0777
// masked by umask, per spec.md §6).
func New(root string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(root, 0777); err != nil {
		return nil, fmt.Errorf("db: creating root %q: %w", root, err)
	}
	s := &Store{root: root, blockSize: mgz.DefaultBlockSize}
	for _, fn := range opts {
		fn(s)
	}
	return s, nil
}

func (s *Store) dir(tierStr string) string {
	prefix := tierStr
	if len(prefix) > dirPrefixLen {
		prefix = prefix[:dirPrefixLen]
	}
	return filepath.Join(s.root, prefix)
}

func (s *Store) gzPath(tierStr string) string     { return filepath.Join(s.dir(tierStr), tierStr+".gz") }
func (s *Store) rawPath(tierStr string) string    { return filepath.Join(s.dir(tierStr), tierStr+".raw") }
func (s *Store) lookupPath(tierStr string) string { return filepath.Join(s.dir(tierStr), tierStr+".lookup") }
func (s *Store) statPath(tierStr string) string    { return filepath.Join(s.dir(tierStr), tierStr+".stat") }

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadValues reads the committed value array for tierStr, preferring
// the blocked-gzip form and falling back to an uncompressed raw file
// when no `.gz` exists (spec.md §4.G "Reads").
func (s *Store) LoadValues(tierStr string) ([]solver.Value, error) {
	var raw []byte
	switch {
	case exists(s.gzPath(tierStr)):
		compressed, err := os.ReadFile(s.gzPath(tierStr))
		if err != nil {
			return nil, fmt.Errorf("db: reading %q: %w", s.gzPath(tierStr), err)
		}
		raw, err = mgz.Inflate(compressed)
		if err != nil {
			return nil, fmt.Errorf("db: inflating %q: %w", s.gzPath(tierStr), err)
		}
	case exists(s.rawPath(tierStr)):
		var err error
		raw, err = os.ReadFile(s.rawPath(tierStr))
		if err != nil {
			return nil, fmt.Errorf("db: reading %q: %w", s.rawPath(tierStr), err)
		}
	default:
		return nil, fmt.Errorf("db: no value array for tier %q", tierStr)
	}

	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("db: tier %q value array has odd byte length %d", tierStr, len(raw))
	}
	values := make([]solver.Value, len(raw)/2)
	for i := range values {
		values[i] = solver.Value(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return values, nil
}

// StoreValues compresses and persists the value array for tierStr,
// along with its `.lookup` seek index. It does not write `.stat`;
// WriteStats is the separate commit step (spec.md §4.G).
func (s *Store) StoreValues(tierStr string, values []solver.Value) error {
	if err := os.MkdirAll(s.dir(tierStr), 0777); err != nil {
		return fmt.Errorf("db: creating dir for %q: %w", tierStr, err)
	}

	raw := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(v))
	}

	compressed, offsets, err := mgz.Deflate(raw, s.blockSize)
	if err != nil {
		return fmt.Errorf("db: deflating %q: %w", tierStr, err)
	}
	if err := writeFileAtomic(s.gzPath(tierStr), compressed); err != nil {
		return err
	}

	lookup := make([]byte, 8+8*len(offsets))
	binary.LittleEndian.PutUint64(lookup, uint64(len(offsets)))
	for i, off := range offsets {
		binary.LittleEndian.PutUint64(lookup[8+8*i:], off)
	}
	if err := writeFileAtomic(s.lookupPath(tierStr), lookup); err != nil {
		return err
	}

	// A raw value array from a previous solve that could not compress
	// is stale once a `.gz` has been written successfully.
	_ = os.Remove(s.rawPath(tierStr))
	return nil
}

// WriteStats persists the `.stat` sidecar; its presence with the
// correct fixed size is the success marker CheckTier looks for.
func (s *Store) WriteStats(tierStr string, stats solver.Stats) error {
	if err := os.MkdirAll(s.dir(tierStr), 0777); err != nil {
		return fmt.Errorf("db: creating dir for %q: %w", tierStr, err)
	}
	buf := make([]byte, statRecordSize)
	fields := []uint64{
		stats.Legal,
		stats.Win,
		stats.Lose,
		stats.Draw,
		uint64(stats.RedLongestWinRemoteness),
		stats.RedLongestWinHash,
		uint64(stats.BlackLongestWinRemoteness),
		stats.BlackLongestWinHash,
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint64(buf[8*i:], f)
	}
	return writeFileAtomic(s.statPath(tierStr), buf)
}

// ReadStats reads back a previously committed `.stat` sidecar.
func (s *Store) ReadStats(tierStr string) (solver.Stats, error) {
	buf, err := os.ReadFile(s.statPath(tierStr))
	if err != nil {
		return solver.Stats{}, fmt.Errorf("db: reading stats for %q: %w", tierStr, err)
	}
	if len(buf) != statRecordSize {
		return solver.Stats{}, fmt.Errorf("db: stats for %q has size %d, want %d", tierStr, len(buf), statRecordSize)
	}
	fields := make([]uint64, 8)
	for i := range fields {
		fields[i] = binary.LittleEndian.Uint64(buf[8*i:])
	}
	return solver.Stats{
		Legal:                     fields[0],
		Win:                       fields[1],
		Lose:                      fields[2],
		Draw:                      fields[3],
		RedLongestWinRemoteness:   int(fields[4]),
		RedLongestWinHash:         fields[5],
		BlackLongestWinRemoteness: int(fields[6]),
		BlackLongestWinHash:       fields[7],
	}, nil
}

// CheckTier reports tierStr's on-disk integrity without loading its
// value array (spec.md §4.G "Integrity check").
func (s *Store) CheckTier(tierStr string) (solver.CheckStatus, error) {
	valuesExist := exists(s.gzPath(tierStr)) || exists(s.rawPath(tierStr))
	statExist := exists(s.statPath(tierStr))
	if !valuesExist || !statExist {
		return solver.StatusMissing, nil
	}

	info, err := os.Stat(s.statPath(tierStr))
	if err != nil {
		return solver.StatusMissing, nil
	}
	if info.Size() != statRecordSize {
		return solver.StatusStatCorrupted, nil
	}
	return solver.StatusOK, nil
}

// writeFileAtomic writes data to path by first writing a sibling
// temporary file and renaming it into place, so a crash mid-write never
// leaves a half-written sidecar masquerading as committed.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0666); err != nil {
		return fmt.Errorf("db: writing %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("db: committing %q: %w", path, err)
	}
	return nil
}
