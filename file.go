package fatvol

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/aligator/fatvol/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing a file.
var (
	ErrReadFile  = errors.New("could not read file completely")
	ErrWriteFile = errors.New("could not write file completely")
	ErrSeekFile  = errors.New("could not seek inside of the file")
	ErrReadDir   = errors.New("could not read the directory")
)

// fileVolume provides all methods needed from a mounted volume for File.
// It mainly exists to be able to mock the volume in tests.
// Generated mock using mockgen:
//  mockgen -source=file.go -destination=file_mock.go -package fatvol
type fileVolume interface {
	readData(entry *dirEntry, start int64, n int) ([]byte, error)
	writeData(entry *dirEntry, start int64, p []byte) error
	entries(cluster uint32) []dirEntry
	flush() error
}

// File is an open handle on one entry of a volume, usable through the
// afero.File interface. Reads and writes go through the volume's cluster
// chain I/O; directory handles support Readdir.
type File struct {
	fs    fileVolume
	entry dirEntry

	readable bool
	writable bool
	closed   bool
	offset   int64
}

func (f *File) Close() error {
	f.fs = nil
	f.entry = dirEntry{}
	f.readable = false
	f.writable = false
	f.closed = true
	f.offset = 0

	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if f.closed {
		return 0, checkpoint.From(afero.ErrFileClosed)
	}
	if !f.readable {
		return 0, checkpoint.Wrap(ErrWrongMode, ErrReadFile)
	}
	if p == nil {
		return 0, nil
	}

	// Reading a file if the size has been already reached, makes no sense.
	if int64(f.entry.Size) <= f.offset {
		return 0, io.EOF
	}

	data, err := f.fs.readData(&f.entry, f.offset, len(p))

	if data != nil {
		copy(p, data)
	}
	f.offset += int64(len(data))

	if err != nil {
		return len(data), checkpoint.Wrap(err, ErrReadFile)
	}

	return len(data), nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if f.closed {
		return 0, checkpoint.From(afero.ErrFileClosed)
	}
	if !f.readable {
		return 0, checkpoint.Wrap(ErrWrongMode, ErrReadFile)
	}
	if p == nil {
		return 0, nil
	}

	if int64(f.entry.Size) <= off {
		return 0, io.EOF
	}

	data, err := f.fs.readData(&f.entry, off, len(p))

	if data != nil {
		copy(p, data)
	}

	if err != nil {
		return len(data), checkpoint.Wrap(err, ErrReadFile)
	}

	if len(data) < len(p) {
		return len(data), io.EOF
	}
	return len(data), nil
}

// Seek jumps to a specific offset in the file. This affects all Read and
// Write operations except ReadAt and WriteAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// Seeking past the end is allowed; a following Write grows the file.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, checkpoint.From(afero.ErrFileClosed)
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = int64(f.entry.Size) + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	if f.closed {
		return 0, checkpoint.From(afero.ErrFileClosed)
	}
	if !f.writable {
		return 0, checkpoint.Wrap(ErrWrongMode, ErrWriteFile)
	}
	if len(p) == 0 {
		return 0, nil
	}

	if err := f.fs.writeData(&f.entry, f.offset, p); err != nil {
		return 0, checkpoint.Wrap(err, ErrWriteFile)
	}

	f.offset += int64(len(p))
	return len(p), nil
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	if f.closed {
		return 0, checkpoint.From(afero.ErrFileClosed)
	}
	if !f.writable {
		return 0, checkpoint.Wrap(ErrWrongMode, ErrWriteFile)
	}
	if len(p) == 0 {
		return 0, nil
	}

	if err := f.fs.writeData(&f.entry, off, p); err != nil {
		return 0, checkpoint.Wrap(err, ErrWriteFile)
	}

	return len(p), nil
}

func (f *File) Name() string {
	return f.entry.Name
}

// Readdir reads the contents of a directory, including its "." and ".."
// entries.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if f.closed {
		return nil, checkpoint.From(afero.ErrFileClosed)
	}
	if !f.entry.IsDirectory() {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	content := f.fs.entries(f.entry.Cluster)

	var err error
	end := len(content)

	if int64(len(content)) < f.offset+int64(count) {
		count = len(content) - int(f.offset)
		err = io.EOF
	}

	if count >= 0 {
		end = int(f.offset) + count
	}

	content = content[f.offset:end]

	if count > 0 {
		f.offset += int64(count)
	} else if count < 0 {
		f.offset = int64(end)
	}

	result := make([]os.FileInfo, len(content))
	for i := range content {
		result[i] = content[i].FileInfo()
	}

	return result, err
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil && err != io.EOF {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, err
}

func (f *File) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, checkpoint.From(afero.ErrFileClosed)
	}
	return f.entry.FileInfo(), nil
}

// Sync posts all outstanding writes of the volume mapping to the image.
func (f *File) Sync() error {
	if f.closed {
		return checkpoint.From(afero.ErrFileClosed)
	}
	return checkpoint.From(f.fs.flush())
}

// Truncate is not supported: the engine never shrinks a cluster chain
// outside of deletion.
func (f *File) Truncate(size int64) error {
	return checkpoint.From(ErrUnsupported)
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}
