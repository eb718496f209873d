package qcomp

import (
	"fmt"
	"os"
	"path/filepath"
)

// TmpDirName is the scratch directory under the workspace root that the
// registry tool writes artifacts into. It is reused across runs.
const TmpDirName = "tmp"

// Workspace is the directory the registry tool runs in.
type Workspace struct {
	Root string
}

// NewWorkspace returns a Workspace rooted at an absolute form of root.
func NewWorkspace(root string) (Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Workspace{}, fmt.Errorf("resolving workspace root: %w", err)
	}
	return Workspace{Root: abs}, nil
}

// TmpDir returns Root/tmp.
func (w Workspace) TmpDir() string {
	return filepath.Join(w.Root, TmpDirName)
}

// ArtifactsDir returns Root/tmp/{scope}_{name}/artifacts[/{variant}].
func (w Workspace) ArtifactsDir(ref Ref, variant string) string {
	return ArtifactsPath(w.TmpDir(), ref, variant)
}

// Ensure creates the tmp directory if it does not exist. It reports whether
// the directory was already there.
func (w Workspace) Ensure() (existed bool, err error) {
	dir := w.TmpDir()
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return true, nil
	case err == nil:
		return false, fmt.Errorf("%s exists and is not a directory", dir)
	case !os.IsNotExist(err):
		return false, fmt.Errorf("checking tmp dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create tmp dir: %w", err)
	}
	return false, nil
}

// CleanArtifacts removes everything previously fetched for ref, so a rerun
// never uploads files left over from an older bundle.
func (w Workspace) CleanArtifacts(ref Ref) error {
	dir := filepath.Join(w.TmpDir(), ref.dirName())
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clear stale artifacts: %w", err)
	}
	return nil
}
