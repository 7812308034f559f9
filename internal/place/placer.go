package place

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-renamer/constants"
	"github.com/joseph-ayodele/invoice-renamer/internal/common"
)

// Placer moves documents to their synthesized names without ever overwriting
// an existing file. One Placer is shared by all workers in a run; its claim
// set keeps concurrently-resolved plans from landing on the same name.
type Placer struct {
	logger *slog.Logger
	claims *claimSet
}

func NewPlacer(logger *slog.Logger) *Placer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Placer{logger: logger, claims: newClaimSet()}
}

// Place resolves a collision-free destination for sourcePath under targetDir
// and, unless dryRun is set, performs the rename. The returned plan is
// identical in both modes; a dry run makes no filesystem mutations at all,
// including directory creation.
func (p *Placer) Place(sourcePath, candidateName, targetDir string, dryRun bool) (RenamePlan, error) {
	plan := RenamePlan{
		SourcePath:    sourcePath,
		CandidateName: candidateName,
		TargetDir:     targetDir,
	}

	if err := p.checkTargetDir(targetDir, dryRun); err != nil {
		return plan, err
	}

	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return plan, common.NewAppError(common.KindDestination,
			fmt.Sprintf("source %q not accessible", sourcePath), err)
	}

	if err := p.resolve(&plan, srcInfo); err != nil {
		return plan, err
	}

	p.logger.Info("place.plan",
		"source", plan.SourcePath,
		"final", plan.FinalPath,
		"noop", plan.NoOp,
		"dry_run", dryRun,
	)

	if dryRun || plan.NoOp {
		return plan, nil
	}

	if err := p.execute(&plan, srcInfo); err != nil {
		p.claims.release(plan.FinalPath)
		return plan, err
	}
	plan.Executed = true
	p.logger.Info("place.done", "source", plan.SourcePath, "final", plan.FinalPath)
	return plan, nil
}

// resolve walks the disambiguator sequence (name.ext, name-1.ext, name-2.ext,
// ...) until it finds a slot that neither exists on disk nor is claimed by a
// concurrent worker. The search is bounded so a pathological directory fails
// loudly instead of spinning.
func (p *Placer) resolve(plan *RenamePlan, srcInfo os.FileInfo) error {
	ext := filepath.Ext(plan.CandidateName)
	stem := strings.TrimSuffix(plan.CandidateName, ext)
	srcBase := filepath.Base(plan.SourcePath)

	for attempt := 0; attempt <= constants.MaxCollisionAttempts; attempt++ {
		name := plan.CandidateName
		if attempt > 0 {
			name = fmt.Sprintf("%s-%d%s", stem, attempt, ext)
		}
		path := filepath.Join(plan.TargetDir, name)

		existing, statErr := os.Stat(path)
		if statErr == nil {
			if os.SameFile(existing, srcInfo) && strings.EqualFold(name, srcBase) {
				plan.FinalName = name
				plan.FinalPath = path
				if name == srcBase && filepath.Clean(plan.TargetDir) == filepath.Clean(filepath.Dir(plan.SourcePath)) {
					plan.NoOp = true
				} else {
					// same file, different spelling: case-insensitive
					// filesystem, needs the two-step rename
					plan.CaseOnly = true
				}
				return nil
			}
			continue
		}
		if !errors.Is(statErr, os.ErrNotExist) {
			return common.NewAppError(common.KindDestination,
				fmt.Sprintf("cannot probe destination %q", path), statErr)
		}

		if !p.claims.tryReserve(path) {
			continue
		}
		plan.FinalName = name
		plan.FinalPath = path
		return nil
	}

	return common.NewAppError(common.KindCollisionExhausted,
		fmt.Sprintf("no free name for %q in %q after %d attempts",
			plan.CandidateName, plan.TargetDir, constants.MaxCollisionAttempts), nil)
}

func (p *Placer) checkTargetDir(dir string, dryRun bool) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return common.NewAppError(common.KindDestination,
				fmt.Sprintf("destination %q is not a directory", dir), nil)
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		if dryRun {
			// would be created on a live run
			return nil
		}
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return common.NewAppError(common.KindDestination,
				fmt.Sprintf("cannot create destination directory %q", dir), mkErr)
		}
		return nil
	default:
		return common.NewAppError(common.KindDestination,
			fmt.Sprintf("cannot access destination directory %q", dir), err)
	}
}

func (p *Placer) execute(plan *RenamePlan, srcInfo os.FileInfo) error {
	if plan.CaseOnly {
		return p.caseOnlyRename(plan)
	}

	err := os.Rename(plan.SourcePath, plan.FinalPath)
	if err == nil {
		return nil
	}
	if isCrossDevice(err) {
		p.logger.Info("place.cross_device", "source", plan.SourcePath, "final", plan.FinalPath)
		return p.copyAcross(plan, srcInfo)
	}
	return classifyFSError(err, plan)
}

// caseOnlyRename changes only the capitalization of a name. Case-insensitive
// filesystems treat the old and new names as the same entry, so the file
// detours through a unique temporary name.
func (p *Placer) caseOnlyRename(plan *RenamePlan) error {
	tmp := filepath.Join(plan.TargetDir, fmt.Sprintf(".rename-%s%s",
		uuid.NewString()[:8], filepath.Ext(plan.FinalName)))
	if err := os.Rename(plan.SourcePath, tmp); err != nil {
		return classifyFSError(err, plan)
	}
	if err := os.Rename(tmp, plan.FinalPath); err != nil {
		// best effort: put the file back under its original name
		if undoErr := os.Rename(tmp, plan.SourcePath); undoErr != nil {
			p.logger.Error("place.case_rename.stranded", "tmp", tmp, "error", undoErr)
		}
		return classifyFSError(err, plan)
	}
	return nil
}

// copyAcross handles renames that cross filesystem boundaries: copy to the
// destination, verify the byte count, then delete the source. The destination
// is opened O_EXCL so a racing writer can never be clobbered; on any failure
// the partial copy is removed and the source left untouched.
func (p *Placer) copyAcross(plan *RenamePlan, srcInfo os.FileInfo) error {
	src, err := os.Open(plan.SourcePath)
	if err != nil {
		return classifyFSError(err, plan)
	}
	defer src.Close()

	dst, err := os.OpenFile(plan.FinalPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		return classifyFSError(err, plan)
	}

	written, copyErr := io.Copy(dst, src)
	if closeErr := dst.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && written != srcInfo.Size() {
		copyErr = fmt.Errorf("copied %d of %d bytes", written, srcInfo.Size())
	}
	if copyErr != nil {
		os.Remove(plan.FinalPath)
		return common.NewAppError(common.KindDestination,
			fmt.Sprintf("copy to %q failed", plan.FinalPath), copyErr)
	}

	if err := os.Remove(plan.SourcePath); err != nil {
		// the copy is good; report the leftover source rather than undoing it
		return common.NewAppError(common.KindPermission,
			fmt.Sprintf("copied to %q but cannot remove source %q", plan.FinalPath, plan.SourcePath), err)
	}
	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV)
}

func classifyFSError(err error, plan *RenamePlan) error {
	if errors.Is(err, os.ErrPermission) {
		return common.NewAppError(common.KindPermission,
			fmt.Sprintf("not permitted to move %q to %q", plan.SourcePath, plan.FinalPath), err)
	}
	return common.NewAppError(common.KindDestination,
		fmt.Sprintf("cannot move %q to %q", plan.SourcePath, plan.FinalPath), err)
}
