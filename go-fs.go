package fatvol

import (
	"errors"
	"io/fs"

	"github.com/aligator/fatvol/checkpoint"
)

type GoDirEntry struct {
	fs.FileInfo
}

func (g GoDirEntry) Type() fs.FileMode {
	return g.FileInfo.Mode().Type()
}

func (g GoDirEntry) Info() (fs.FileInfo, error) {
	return g.FileInfo, nil
}

type GoFile struct {
	*File
}

func (g GoFile) Stat() (fs.FileInfo, error) {
	return g.File.Stat()
}

func (g GoFile) Read(bytes []byte) (int, error) {
	return g.File.Read(bytes)
}

func (g GoFile) Close() error {
	return g.File.Close()
}

func (g GoFile) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := g.File.Readdir(n)

	goEntries := make([]fs.DirEntry, len(entries))
	for i, e := range entries {
		goEntries[i] = GoDirEntry{e}
	}

	return goEntries, err
}

// GoFs wraps the afero adapter to be compatible with fs.FS.
type GoFs struct {
	Fs
}

// NewGoFS exposes a mounted volume as an fs.FS compatible filesystem.
func NewGoFS(vol *Volume) *GoFs {
	return &GoFs{Fs{vol: vol}}
}

func (g GoFs) Open(name string) (fs.File, error) {
	file, err := g.Fs.Open(name)
	if err != nil {
		return nil, err
	}

	f, ok := file.(*File)
	if !ok {
		return nil, checkpoint.From(errors.New("invalid File implementation"))
	}

	return GoFile{f}, nil
}
