package pipeline

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-renamer/constants"
)

// InputError records an input argument that could not be expanded at all
// (missing path, unreadable directory). Individual unsupported files inside a
// directory are skipped silently; naming a bad file directly is an error.
type InputError struct {
	Path string
	Err  error
}

// ExpandInputs turns the CLI path arguments into the ordered list of
// candidate files. Directories are walked recursively with hidden entries
// skipped; only files whose extension is in the allowed set survive. A path
// argument that does not exist fails that argument without aborting the rest.
func ExpandInputs(paths []string, logger *slog.Logger) ([]string, []InputError) {
	if logger == nil {
		logger = slog.Default()
	}

	var files []string
	var failures []InputError
	seen := map[string]struct{}{}

	add := func(path string) {
		key := filepath.Clean(path)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		files = append(files, key)
	}

	for _, arg := range paths {
		info, err := statArg(arg)
		if err != nil {
			failures = append(failures, InputError{Path: arg, Err: err})
			continue
		}

		if !info.IsDir() {
			// explicitly named files are kept even with an unsupported
			// extension, so the pipeline reports them instead of ignoring them
			add(arg)
			continue
		}

		walkErr := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("inputs.walk.error", "path", path, "error", err)
				return nil
			}
			if isHidden(path) && path != filepath.Clean(arg) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := constants.NormalizeExt(filepath.Ext(path))
			if _, ok := constants.AllowedExtensions[ext]; !ok {
				return nil
			}
			add(path)
			return nil
		})
		if walkErr != nil {
			failures = append(failures, InputError{Path: arg, Err: walkErr})
		}
	}

	sort.Strings(files)
	logger.Info("inputs.expanded", "args", len(paths), "files", len(files), "failed_args", len(failures))
	return files, failures
}

func statArg(path string) (fs.FileInfo, error) {
	return os.Stat(filepath.Clean(path))
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
