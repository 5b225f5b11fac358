package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/savekit/savekit/internal/errors"
)

// Kind distinguishes user-initiated backups from the automatic snapshots
// taken before a restore.
type Kind string

const (
	// KindRegular is a backup created by an explicit backup operation.
	KindRegular Kind = "regular"

	// KindSafety is a snapshot of the target folder taken immediately
	// before a restore overwrites it.
	KindSafety Kind = "safety"
)

// TimestampLayout is the wall-clock format embedded in archive file names.
const TimestampLayout = "2006-01-02_15-04-05"

// safetyDirName is the subdirectory holding safety archives for a game.
const safetyDirName = "Safety"

// Archive describes a single archive file under a storage root.
type Archive struct {
	StorageRoot string
	GameName    string
	Kind        Kind
	Timestamp   time.Time
	Path        string
}

// Store creates, lists, and deletes zip archives under a storage root.
//
// Layout contract:
//
//	<root>/<game>/<game>_<YYYY-MM-DD_hh-mm-ss>.zip
//	<root>/<game>/Safety/SAFETY_<YYYY-MM-DD_hh-mm-ss>.zip
//
// Archives are immutable once written and never overwritten; two writes
// within the same second get an incrementing _N suffix.
type Store struct {
	root string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for archive naming.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		root: dir,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// Write recursively packs sourceDir into a new archive for gameName.
// Compression toggles between Deflate and Store per call.
//
// The archive file appears atomically: content is written to a temp file in
// the destination directory and renamed into place once complete.
func (s *Store) Write(sourceDir string, kind Kind, gameName string, compress bool) (*Archive, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrPathNotFound, "source folder %s", sourceDir)
		}
		return nil, errors.Wrapf(err, "stat source folder %s", sourceDir)
	}
	if !info.IsDir() {
		return nil, errors.Newf("source %s is not a directory", sourceDir)
	}

	files, err := collectFiles(sourceDir)
	if err != nil {
		return nil, errors.Wrapf(err, "scanning source folder %s", sourceDir)
	}
	if len(files) == 0 {
		return nil, errors.Newf("source folder %s is empty", sourceDir)
	}

	destDir := s.gameDir(gameName, kind)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrStorage, "creating archive directory %s: %v", destDir, err)
	}

	ts := s.now()
	destPath, err := s.claimPath(destDir, gameName, kind, ts)
	if err != nil {
		return nil, err
	}

	if err := writeZip(destPath, sourceDir, files, compress); err != nil {
		// The reservation left an empty file under a valid archive name;
		// drop it so List never reports a phantom archive.
		os.Remove(destPath)
		return nil, err
	}

	return &Archive{
		StorageRoot: s.root,
		GameName:    gameName,
		Kind:        kind,
		Timestamp:   ts.Truncate(time.Second),
		Path:        destPath,
	}, nil
}

// claimPath reserves a unique archive path for the given timestamp.
// A same-second collision gets an incrementing suffix: name.zip, name_2.zip, ...
func (s *Store) claimPath(destDir, gameName string, kind Kind, ts time.Time) (string, error) {
	base := archiveBaseName(gameName, kind, ts)

	for i := 1; ; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s_%d", base, i)
		}
		path := filepath.Join(destDir, name+".zip")

		// O_EXCL reserves the name so concurrent writers for the same
		// game can never collide on a path.
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", errors.Wrapf(errors.ErrStorage, "reserving archive path %s: %v", path, err)
		}
		f.Close()
		return path, nil
	}
}

// writeZip writes the archive content to a temp file and renames it over the
// reserved path, so a crash mid-write never leaves a half-written archive
// under a valid name.
func writeZip(destPath, sourceDir string, files []string, compress bool) error {
	destDir := filepath.Dir(destPath)

	tmp, err := os.CreateTemp(destDir, ".savekit-zip-*.tmp")
	if err != nil {
		return errors.Wrapf(errors.ErrStorage, "creating temp archive: %v", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			os.Remove(tmpName)
		}
	}()

	method := zip.Store
	if compress {
		method = zip.Deflate
	}

	zw := zip.NewWriter(tmp)
	for _, file := range files {
		rel, err := filepath.Rel(sourceDir, file)
		if err != nil {
			zw.Close()
			tmp.Close()
			return errors.Wrapf(err, "computing archive path for %s", file)
		}

		if err := addFile(zw, file, filepath.ToSlash(rel), method); err != nil {
			zw.Close()
			tmp.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "finalizing archive")
	}
	// Flush to stable storage before the rename publishes the archive.
	// Restore relies on a safety archive being durable before it deletes
	// anything.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "syncing archive")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp archive")
	}

	if err := os.Rename(tmpName, destPath); err != nil {
		return errors.Wrapf(errors.ErrStorage, "moving archive into place: %v", err)
	}
	return nil
}

func addFile(zw *zip.Writer, path, name string, method uint16) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrapf(err, "building header for %s", path)
	}
	hdr.Name = name
	hdr.Method = method

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return errors.Wrapf(err, "adding %s to archive", name)
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrapf(err, "writing %s to archive", name)
	}
	return nil
}

func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// Extract unpacks an archive into targetDir, creating it if absent.
//
// Entries are fully extracted into a temporary staging directory first and
// only then moved into the target, so a malformed archive or a mid-extraction
// failure never leaves the target folder worse than before the call.
func (s *Store) Extract(archivePath, targetDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrapf(errors.ErrCorruptArchive, "opening %s: %v", archivePath, err)
	}
	defer zr.Close()

	parent := filepath.Dir(filepath.Clean(targetDir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return errors.Wrapf(err, "creating parent of %s", targetDir)
	}

	staging, err := os.MkdirTemp(parent, ".savekit-extract-*")
	if err != nil {
		return errors.Wrap(err, "creating staging directory")
	}
	defer os.RemoveAll(staging)

	for _, entry := range zr.File {
		if err := extractEntry(entry, staging); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating target folder %s", targetDir)
	}
	return moveTree(staging, targetDir)
}

func extractEntry(entry *zip.File, staging string) error {
	rel, err := sanitizeEntryName(entry.Name)
	if err != nil {
		return err
	}

	dest := filepath.Join(staging, rel)

	if entry.FileInfo().IsDir() {
		return errors.Wrapf(os.MkdirAll(dest, 0o755), "creating directory %s", rel)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "creating parent of %s", rel)
	}

	rc, err := entry.Open()
	if err != nil {
		return errors.Wrapf(errors.ErrCorruptArchive, "opening entry %s: %v", entry.Name, err)
	}
	defer rc.Close()

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", rel)
	}

	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		// Decompression errors at this point mean a damaged file body.
		return errors.Wrapf(errors.ErrCorruptArchive, "extracting entry %s: %v", entry.Name, err)
	}
	return errors.Wrapf(f.Close(), "closing %s", rel)
}

// sanitizeEntryName rejects absolute or parent-escaping entry names.
// Archives are written with relative slash paths; anything else is treated
// as corrupt rather than extracted outside the target.
func sanitizeEntryName(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(errors.ErrCorruptArchive, "unsafe entry name %q", name)
	}
	return clean, nil
}

// moveTree moves every file under staging into target, preserving relative
// structure. Rename is attempted first; cross-device falls back to copy.
func moveTree(staging, target string) error {
	return filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(staging, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		dest := filepath.Join(target, rel)
		if d.IsDir() {
			return errors.Wrapf(os.MkdirAll(dest, 0o755), "creating directory %s", rel)
		}

		if err := os.Rename(path, dest); err == nil {
			return nil
		}
		return copyFile(path, dest)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copying to %s", dst)
	}
	return errors.Wrapf(out.Close(), "closing %s", dst)
}

// List returns archives of the given kind for a game, newest first.
// Files that do not follow the naming contract are skipped.
func (s *Store) List(gameName string, kind Kind) ([]Archive, error) {
	dir := s.gameDir(gameName, kind)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "reading archive directory %s", dir)
	}

	var archives []Archive
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".zip") {
			continue
		}
		ts, ok := parseArchiveName(entry.Name(), gameName, kind)
		if !ok {
			continue
		}
		archives = append(archives, Archive{
			StorageRoot: s.root,
			GameName:    gameName,
			Kind:        kind,
			Timestamp:   ts,
			Path:        filepath.Join(dir, entry.Name()),
		})
	}

	slices.SortFunc(archives, func(a, b Archive) int {
		if a.Timestamp.After(b.Timestamp) {
			return -1
		}
		if a.Timestamp.Before(b.Timestamp) {
			return 1
		}
		// Same-second siblings sort by suffix via name, newest (highest) first.
		return strings.Compare(b.Path, a.Path)
	})

	return archives, nil
}

// Delete removes an archive file. Archive deletion is always an explicit
// caller decision; the engine never deletes archives on its own.
func (s *Store) Delete(a Archive) error {
	return errors.Wrapf(os.Remove(a.Path), "deleting archive %s", a.Path)
}

// Prune deletes the oldest archives of the given kind beyond the keep
// newest. keep < 1 is invalid; pruning to zero archives is always an
// explicit Delete decision. Returns the number of archives removed.
func (s *Store) Prune(gameName string, kind Kind, keep int) (int, error) {
	if keep < 1 {
		return 0, errors.Newf("keep must be at least 1, got %d", keep)
	}

	archives, err := s.List(gameName, kind)
	if err != nil {
		return 0, err
	}
	if len(archives) <= keep {
		return 0, nil
	}

	removed := 0
	for _, a := range archives[keep:] {
		if err := s.Delete(a); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *Store) gameDir(gameName string, kind Kind) string {
	if kind == KindSafety {
		return filepath.Join(s.root, gameName, safetyDirName)
	}
	return filepath.Join(s.root, gameName)
}

func archiveBaseName(gameName string, kind Kind, ts time.Time) string {
	stamp := ts.Format(TimestampLayout)
	if kind == KindSafety {
		return "SAFETY_" + stamp
	}
	return gameName + "_" + stamp
}

// parseArchiveName extracts the timestamp from a contract-conforming file
// name, tolerating the _N collision suffix.
func parseArchiveName(name, gameName string, kind Kind) (time.Time, bool) {
	base := strings.TrimSuffix(name, ".zip")

	var prefix string
	if kind == KindSafety {
		prefix = "SAFETY_"
	} else {
		prefix = gameName + "_"
	}
	if !strings.HasPrefix(base, prefix) {
		return time.Time{}, false
	}

	stamp := base[len(prefix):]
	if len(stamp) > len(TimestampLayout) {
		// Strip a _N collision suffix.
		rest := stamp[len(TimestampLayout):]
		if !strings.HasPrefix(rest, "_") {
			return time.Time{}, false
		}
		stamp = stamp[:len(TimestampLayout)]
	}

	ts, err := time.ParseInLocation(TimestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
