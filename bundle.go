package obras2pdf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/alnah/go-obras2pdf/internal/fileutil"
)

// Bundle merges the given reports, in order, into a single PDF at outPath.
// The result is written next to outPath first and renamed into place.
func Bundle(inPaths []string, outPath string) error {
	if len(inPaths) == 0 {
		return fmt.Errorf("%w: no reports to merge", ErrBundle)
	}

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, fileutil.DirPermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrBundle, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(outPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBundle, err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := api.MergeCreateFile(inPaths, tmpPath, false, relaxedConfig()); err != nil {
		return fmt.Errorf("%w: %v", ErrBundle, err)
	}
	if err := os.Chmod(tmpPath, fileutil.FilePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrBundle, err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("%w: %v", ErrBundle, err)
	}
	return nil
}
