package io

import (
	"errors"
	"fmt"
	"os"
	"time"
)

var ErrFileNotOpened = errors.New("file not opened")

// FileReader is the handle a region owns for its whole lifetime.
// Despite the name it reads and writes.
type FileReader struct {
	path   string
	file   *os.File
	opened bool
	locked bool

	// zero when the file didn't exist before
	lastModified time.Time
}

func NewFileReader(path string) *FileReader {

	stat, err := os.Stat(path)

	freader := &FileReader{
		path: path,
	}

	if err == nil {
		freader.lastModified = stat.ModTime()
	}

	return freader
}

// Open opens the file for read-write, creating it when missing.
func (f *FileReader) Open() (topErr error) {

	f.file, topErr = os.OpenFile(f.path, os.O_CREATE|os.O_RDWR, 0644)
	if topErr == nil {
		f.opened = true
	}

	return topErr
}

// OpenExclusive opens like Open and takes an exclusive advisory lock,
// failing fast if another process holds it.
func (f *FileReader) OpenExclusive() error {
	openErr := f.Open()
	if openErr != nil {
		return openErr
	}

	lockErr := lockFile(f.file)
	if lockErr != nil {
		f.file.Close()
		f.opened = false
		return fmt.Errorf("unable to lock %s: %s", f.path, lockErr.Error())
	}

	f.locked = true
	return nil
}

func (f *FileReader) Close() error {
	if f.opened == false {
		return nil
	}

	if f.locked {
		unlockFile(f.file)
		f.locked = false
	}

	f.opened = false
	return f.file.Close()
}

func (f *FileReader) Path() string {
	return f.path
}

func (f *FileReader) LastModified() time.Time {
	return f.lastModified
}

func (f *FileReader) Size() (int64, error) {
	if f.opened == false {
		return 0, ErrFileNotOpened
	}

	stat, err := f.file.Stat()
	if err != nil {
		return 0, err
	}

	return stat.Size(), nil
}

func (f *FileReader) ReadAt(out []byte, off int64) (err error) {
	if f.opened == false {
		return ErrFileNotOpened
	}

	var readBytes int
	readBytes, err = f.file.ReadAt(out, off)

	if readBytes != len(out) {
		return fmt.Errorf("read bytes mismatch at %d: %d of %d", off, readBytes, len(out))
	}

	return nil
}

func (f *FileReader) WriteAt(in []byte, off int64) (err error) {
	if f.opened == false {
		return ErrFileNotOpened
	}

	var writtenBytes int
	writtenBytes, err = f.file.WriteAt(in, off)
	if err != nil {
		return err
	}

	if writtenBytes != len(in) {
		return errors.New("written bytes mismatch")
	}

	return nil
}

// fill zeroes to the file at offset with given size
func (f *FileReader) FillZeroes(offset int64, size int) (err error) {
	if size <= 0 {
		return nil
	}

	return f.WriteAt(make([]byte, size), offset)
}

func (f *FileReader) Truncate(size int64) error {
	if f.opened == false {
		return ErrFileNotOpened
	}

	return f.file.Truncate(size)
}

func (f *FileReader) Sync() error {
	if f.opened == false {
		return ErrFileNotOpened
	}

	return syncFile(f.file)
}
