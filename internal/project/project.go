// Package project detects how the workspace declares its Python dependencies.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Kind identifies the Python dependency layout of a project.
type Kind string

const (
	KindUV      Kind = "uv"
	KindPip     Kind = "pip"
	KindUnknown Kind = "unknown"
)

// Marker files inspected by Detect.
const (
	UVLockFile       = "uv.lock"
	PyprojectFile    = "pyproject.toml"
	RequirementsFile = "requirements.txt"
)

// Info describes a detected project.
type Info struct {
	Kind Kind
	// Marker is the file that decided Kind.
	Marker       string
	Name         string
	Dependencies int
	HasPyproject bool
}

// Syncable reports whether a dependency sync makes sense for the project.
func (i Info) Syncable() bool {
	return i.Kind != KindUnknown
}

type pyproject struct {
	Project struct {
		Name         string   `toml:"name"`
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool             map[string]any `toml:"tool"`
	DependencyGroups map[string]any `toml:"dependency-groups"`
}

// Detect inspects dir for Python project markers. A directory without any
// markers is reported as KindUnknown with a nil error.
func Detect(dir string) (Info, error) {
	info := Info{Kind: KindUnknown}

	doc, hasPyproject, err := readPyproject(dir)
	if err != nil {
		return info, err
	}
	info.HasPyproject = hasPyproject
	if hasPyproject {
		info.Name = doc.Project.Name
		info.Dependencies = len(doc.Project.Dependencies)
	}

	switch {
	case fileExists(dir, UVLockFile):
		info.Kind, info.Marker = KindUV, UVLockFile
	case hasPyproject && isUVPyproject(doc):
		info.Kind, info.Marker = KindUV, PyprojectFile
	case fileExists(dir, RequirementsFile):
		info.Kind, info.Marker = KindPip, RequirementsFile
	case hasPyproject:
		info.Kind, info.Marker = KindPip, PyprojectFile
	}
	return info, nil
}

func readPyproject(dir string) (pyproject, bool, error) {
	var doc pyproject
	data, err := os.ReadFile(filepath.Join(dir, PyprojectFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, false, nil
		}
		return doc, false, fmt.Errorf("read %s: %w", PyprojectFile, err)
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return doc, true, fmt.Errorf("parse %s: %w", PyprojectFile, err)
	}
	return doc, true, nil
}

func isUVPyproject(doc pyproject) bool {
	if _, ok := doc.Tool["uv"]; ok {
		return true
	}
	return len(doc.DependencyGroups) > 0
}

func fileExists(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
