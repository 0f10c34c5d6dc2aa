//go:build !unix

package io

import "os"

// no advisory locking here, the region mutex still serializes access inside the process
func lockFile(f *os.File) error {
	return nil
}

func unlockFile(f *os.File) error {
	return nil
}

func syncFile(f *os.File) error {
	return f.Sync()
}
