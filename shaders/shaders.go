// Package shaders embeds the GLSL sources of the render passes.
package shaders

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/der-antikeks/deferred/gpu"
)

//go:embed *.vert *.frag *.compute
var files embed.FS

// Loader reads shader stages by file name, preferring files under Dir when
// it is set.
type Loader struct {
	Dir string
}

// Load returns the named stage. The stage is derived from the extension.
func (l Loader) Load(name string) (gpu.Source, error) {
	stage, err := stageOf(name)
	if err != nil {
		return gpu.Source{}, err
	}

	var data []byte
	if l.Dir != "" {
		data, err = os.ReadFile(filepath.Join(l.Dir, name))
	}
	if l.Dir == "" || err != nil {
		data, err = fs.ReadFile(files, name)
	}
	if err != nil {
		return gpu.Source{}, fmt.Errorf("load shader %s: %w", name, err)
	}

	return gpu.Source{Stage: stage, Name: name, Code: string(data)}, nil
}

// Program loads all named stages.
func (l Loader) Program(names ...string) ([]gpu.Source, error) {
	srcs := make([]gpu.Source, 0, len(names))
	for _, n := range names {
		s, err := l.Load(n)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, s)
	}
	return srcs, nil
}

func stageOf(name string) (gpu.Stage, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".vert":
		return gpu.VertexStage, nil
	case ".frag":
		return gpu.FragmentStage, nil
	case ".compute", ".comp":
		return gpu.ComputeStage, nil
	}
	return 0, fmt.Errorf("unknown shader stage: %s", name)
}
