// Package configutil loads json5 configuration files. Every file can be shadowed
// field by field by a sibling carrying a `.local` infix, which is where secrets
// and machine specific values go.
package configutil

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	i := strings.LastIndexByte(f, '.')
	if i < 0 {
		return f, ""
	}
	return f[:i], f[i+1:]
}

// localPath turns `dir/name.ext` into `dir/name.local.ext`.
func localPath(name string) string {
	prefix, ext := splitExt(filepath.Base(name))
	return filepath.Join(filepath.Dir(name), fmt.Sprintf("%s.local.%s", prefix, ext))
}

// readLayer decodes a single file, found is false when it does not exist or is empty.
func readLayer[T any](path string) (out T, found bool, err error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	if len(contents) == 0 {
		return out, false, nil
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, true, nil
}

// ReadConfig reads `name` (which must carry an extension) and merges its `.local`
// sibling over it. Either file may be missing, when both are the error satisfies
// os.IsNotExist.
func ReadConfig[T any](name string) (T, error) {
	out, baseFound, err := readLayer[T](name)
	if err != nil {
		return out, err
	}

	local := localPath(name)
	override, localFound, err := readLayer[T](local)
	if err != nil {
		return out, err
	}
	if localFound {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", local, err)
		}
		slog.Debug("merged local config overrides", "path", local)
	}

	if !baseFound && !localFound {
		return out, &fs.PathError{Op: "read config", Path: name, Err: fs.ErrNotExist}
	}
	return out, nil
}

// ReadRecursively is ReadConfig applied to `start` and then every parent directory
// up to the root, the first directory holding the config wins.
func ReadRecursively[T any](start, name string) (T, error) {
	var empty T

	dir, err := filepath.Abs(start)
	if err != nil {
		return empty, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return empty, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return empty, &fs.PathError{Op: "find config", Path: name, Err: fs.ErrNotExist}
		}
		dir = parent
	}
}
