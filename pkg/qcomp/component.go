// Package qcomp resolves an installed web component package into its
// registry reference and the local directory its build artifacts land in.
package qcomp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quatton/qsite/pkg/qerr"
)

// ManifestFile is the manifest colocated with the component package root.
const ManifestFile = "package.json"

// Ref identifies a buildable component in the registry.
type Ref struct {
	Scope string `json:"scope"`
	Name  string `json:"name"`
}

// ID returns the registry lookup key, scope/name.
func (r Ref) ID() string {
	return r.Scope + "/" + r.Name
}

// Validate reports whether both fields are set.
func (r Ref) Validate() error {
	if r.Scope == "" || r.Name == "" {
		return fmt.Errorf("componentId needs scope and name, got %q", r.ID())
	}
	return nil
}

func (r Ref) dirName() string {
	return r.Scope + "_" + r.Name
}

type manifest struct {
	ComponentID json.RawMessage `json:"componentId"`
}

// PackageRoot returns the package root for an installed package entry path,
// two directory levels up (e.g. <root>/dist/index.js -> <root>).
func PackageRoot(pkgPath string) string {
	return filepath.Dir(filepath.Dir(pkgPath))
}

// Resolve reads the manifest at the package root of pkgPath and returns its
// componentId.
func Resolve(pkgPath string) (Ref, error) {
	return ReadManifest(PackageRoot(pkgPath))
}

// ReadManifest parses the componentId out of root/package.json.
func ReadManifest(root string) (Ref, error) {
	path := filepath.Join(root, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Ref{}, qerr.WithSubject(qerr.CodeManifestNotFound, path, err)
		}
		return Ref{}, qerr.WithSubject(qerr.CodeManifestNotFound, path, fmt.Errorf("reading manifest: %w", err))
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Ref{}, qerr.WithSubject(qerr.CodeMalformedManifest, path, fmt.Errorf("parsing manifest: %w", err))
	}
	if len(m.ComponentID) == 0 || string(m.ComponentID) == "null" {
		return Ref{}, qerr.WithSubject(qerr.CodeMalformedManifest, path, errors.New("componentId is missing"))
	}

	var ref Ref
	if err := json.Unmarshal(m.ComponentID, &ref); err != nil {
		return Ref{}, qerr.WithSubject(qerr.CodeMalformedManifest, path, fmt.Errorf("componentId is not an object: %w", err))
	}
	if err := ref.Validate(); err != nil {
		return Ref{}, qerr.WithSubject(qerr.CodeMalformedManifest, path, err)
	}
	return ref, nil
}

// ArtifactsPath returns root/{scope}_{name}/artifacts[/{variant}].
func ArtifactsPath(root string, ref Ref, variant string) string {
	if variant == "" {
		return filepath.Join(root, ref.dirName(), "artifacts")
	}
	return filepath.Join(root, ref.dirName(), "artifacts", variant)
}
