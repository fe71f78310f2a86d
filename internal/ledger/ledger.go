package ledger

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"snapsync/internal/snap"
)

// FileName is the ledger file kept at the root of each source directory.
const FileName = ".snapsync-uploaded.log"

// Store is the append-only content fingerprint ledger. Each successful
// upload appends one line:
//
//	<ISO8601 UTC timestamp>|<relative/path>|<sha256 hex>
//
// The ledger is never rewritten or compacted. A file counts as uploaded only
// when an entry matches both its current relative path and its recomputed
// content hash, so any byte change invalidates the record implicitly.
//
// Appends to the same directory's ledger are serialized through a
// per-directory mutex; combined with single-write O_APPEND lines this keeps
// concurrent upload jobs from interleaving partial lines.
type Store struct {
	clock snap.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex // absolute source dir -> append lock
}

// New creates a ledger store stamping entries with the given clock.
func New(clock snap.Clock) *Store {
	return &Store{
		clock: clock,
		locks: make(map[string]*sync.Mutex),
	}
}

// IsUploaded reports whether filePath's current content has already been
// uploaded from sourceDir. A missing ledger file yields false, not an error.
func (s *Store) IsUploaded(sourceDir, filePath string) (bool, error) {
	relPath, err := relativePath(sourceDir, filePath)
	if err != nil {
		return false, err
	}
	hash, err := hashFile(filePath)
	if err != nil {
		return false, fmt.Errorf("hashing %s: %w", filePath, err)
	}

	f, err := os.Open(filepath.Join(sourceDir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("opening ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entryPath, entryHash, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if entryPath == relPath && entryHash == hash {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("reading ledger: %w", err)
	}
	return false, nil
}

// RecordUploaded appends an entry for filePath to sourceDir's ledger,
// creating the ledger on first use.
func (s *Store) RecordUploaded(sourceDir, filePath string) error {
	relPath, err := relativePath(sourceDir, filePath)
	if err != nil {
		return err
	}
	hash, err := hashFile(filePath)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", filePath, err)
	}

	line := fmt.Sprintf("%s|%s|%s\n",
		s.clock.Now().UTC().Format("2006-01-02T15:04:05Z"), relPath, hash)

	lock := s.dirLock(sourceDir)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(filepath.Join(sourceDir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening ledger for append: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("appending ledger entry: %w", err)
	}
	return nil
}

func (s *Store) dirLock(sourceDir string) *sync.Mutex {
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		abs = sourceDir
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[abs]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[abs] = lock
	}
	return lock
}

func relativePath(sourceDir, filePath string) (string, error) {
	rel, err := filepath.Rel(sourceDir, filePath)
	if err != nil {
		return "", fmt.Errorf("calculating relative path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// parseLine splits one ledger line into its path and hash fields.
// The relative path may itself contain '|' only in theory; the format uses
// exactly three fields so the split is bounded.
func parseLine(line string) (relPath, hash string, ok bool) {
	parts := strings.SplitN(strings.TrimRight(line, "\n"), "|", 3)
	if len(parts) != 3 {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Compile-time check that Store implements snap.Ledger
var _ snap.Ledger = (*Store)(nil)
