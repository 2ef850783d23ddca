// Package files reads import documents from and writes export documents to
// the local filesystem.
package files

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// ExportFileName is the name of the file WriteExport produces.
const ExportFileName = "quotes.json"

// errSymlink is wrapped by every refusal to touch a symlink.
var errSymlink = errors.New("refusing to follow symlink")

// WriteExport atomically writes data to dir/quotes.json with mode 0600 and
// returns the written path. An existing export is preserved if anything fails.
func WriteExport(dir string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	path := filepath.Join(dir, ExportFileName)

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("generating temp file name: %w", err)
	}

	tempPath := path + "." + hex.EncodeToString(suffix) + ".tmp"

	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}

	committed := false
	defer func() {
		if file != nil {
			_ = file.Close()
		}

		if !committed {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return "", fmt.Errorf("writing export file: %w", err)
	}

	if err := file.Sync(); err != nil {
		return "", fmt.Errorf("syncing export file: %w", err)
	}

	// Closed before rename; Windows cannot rename an open file.
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing export file: %w", err)
	}
	file = nil

	// os.Rename replaces a symlink rather than following it, but a symlink at
	// the destination means someone expects writes to land elsewhere.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("%w: %s", errSymlink, path)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return "", fmt.Errorf("finalizing export: %w", err)
	}

	committed = true

	return path, nil
}

// ReadImport reads the import document at path. A symlink is refused, a
// missing file is NotFound and content over maxBytes is a FormatError.
// maxBytes <= 0 disables the limit.
func ReadImport(path string, maxBytes int64) ([]byte, error) {
	file, err := openNoFollow(path, os.O_RDONLY, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewNotFoundError("import file", path)
		}

		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if maxBytes > 0 {
		r = io.LimitReader(file, maxBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, domain.NewFormatError(fmt.Sprintf("file exceeds %d bytes", maxBytes))
	}

	return data, nil
}

// IsSymlinkRefusal reports whether err is a refusal to follow a symlink.
func IsSymlinkRefusal(err error) bool {
	return errors.Is(err, errSymlink)
}
