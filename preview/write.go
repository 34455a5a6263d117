package preview

import (
	"path"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// Write stores doc under root, at its RelativePath, and returns the full path.
func Write(fs afero.Fs, root string, doc Document) (string, error) {
	stat, err := fs.Stat(root)
	if err != nil {
		return "", errors.Errorf("preview: cannot stat '%s': %w", root, err)
	}
	if !stat.IsDir() {
		return "", errors.Errorf("preview: output path not a directory: '%s'", root)
	}

	abs := path.Join(root, doc.RelativePath)
	directory := path.Dir(abs)

	if err := fs.MkdirAll(directory, 0o750); err != nil {
		return "", errors.Errorf("preview: couldn't create directory %s: %w", directory, err)
	}

	if err := afero.WriteFile(fs, abs, []byte(doc.String()), 0o640); err != nil {
		return "", errors.Errorf("preview: couldn't write to file %s: %w", abs, err)
	}

	return abs, nil
}
