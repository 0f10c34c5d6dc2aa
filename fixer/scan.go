package fixer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/exp/slices"
)

// region files of a world usually live in a region/ directory next to level.dat
const regionSubdir = "region"

var ErrInvalidDirectory = errors.New("invalid region directory")

// ResolveDir checks that dir exists and is a directory.
func ResolveDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}

	info, statErr := os.Stat(dir)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return "", fmt.Errorf("%w: %s does not exist", ErrInvalidDirectory, dir)
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidDirectory, statErr.Error())
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidDirectory, dir)
	}

	return dir, nil
}

// DiscoverRegions lists files with extension ext directly inside dir and inside its region/ subdirectory.
func DiscoverRegions(dir, ext string) ([]string, error) {

	paths, listErr := listRegions(dir, ext)
	if listErr != nil {
		return nil, listErr
	}

	sub := filepath.Join(dir, regionSubdir)
	if info, statErr := os.Stat(sub); statErr == nil && info.IsDir() {
		subPaths, subErr := listRegions(sub, ext)
		if subErr != nil {
			return nil, subErr
		}
		paths = append(paths, subPaths...)
	}

	slices.Sort(paths)

	return paths, nil
}

func listRegions(dir, ext string) ([]string, error) {
	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		return nil, fmt.Errorf("unable to list %s: %s", dir, readErr.Error())
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	return paths, nil
}
