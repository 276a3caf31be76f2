package download

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxDuplicates bounds the " (n)" suffix search
const maxDuplicates = 1000

// Trigger saves archives into a downloads directory
type Trigger struct {
	Dir string
}

// Save writes payload under filename and returns the final path.
// The bytes go to a transient .part file first; that file never outlives the call.
func (t Trigger) Save(payload []byte, filename string) (string, error) {
	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}

	if err := os.MkdirAll(t.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	part, err := os.CreateTemp(t.Dir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create transient file: %w", err)
	}
	partPath := part.Name()
	defer os.Remove(partPath) // no-op once renamed

	if _, err := part.Write(payload); err != nil {
		part.Close()
		return "", fmt.Errorf("write transient file: %w", err)
	}
	if err := part.Close(); err != nil {
		return "", fmt.Errorf("close transient file: %w", err)
	}
	if err := os.Chmod(partPath, 0o644); err != nil {
		return "", fmt.Errorf("chmod transient file: %w", err)
	}

	dest, err := t.available(name)
	if err != nil {
		return "", err
	}
	if err := os.Rename(partPath, dest); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}

	return dest, nil
}

// available picks name, or "name (n).ext" when name is taken
func (t Trigger) available(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := name
	for n := 1; n <= maxDuplicates; n++ {
		p := filepath.Join(t.Dir, candidate)
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return p, nil
		} else if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
	return "", fmt.Errorf("too many copies of %s", name)
}
