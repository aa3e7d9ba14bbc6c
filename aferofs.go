package fatvol

import (
	"errors"
	"os"
	"time"

	"github.com/aligator/fatvol/checkpoint"
	"github.com/spf13/afero"
)

// Fs exposes a mounted Volume through the afero.Fs interface. Names are
// single-component entry names resolved in the volume's current directory;
// "" and "/" address the root directory. Operations the FAT32 short-name
// engine cannot express return ErrUnsupported.
type Fs struct {
	vol *Volume
}

// NewFs wraps a mounted volume as an afero.Fs.
func NewFs(vol *Volume) afero.Fs {
	return &Fs{vol: vol}
}

// resolve maps an adapter path to a directory entry. The empty path and the
// root name address the root directory.
func (fs *Fs) resolve(name string) (dirEntry, error) {
	if name == "" {
		name = RootName
	}

	if err := fs.vol.checkPathName(name); err != nil {
		return dirEntry{}, err
	}

	return fs.vol.findEntry(name, fs.vol.curDirCluster)
}

func (fs *Fs) Create(name string) (afero.File, error) {
	if err := fs.vol.Create(name); err != nil {
		return nil, checkpoint.From(err)
	}

	entry, err := fs.resolve(name)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	return &File{
		fs:       fs.vol,
		entry:    entry,
		readable: true,
		writable: true,
	}, nil
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return fs.vol.Mkdir(name)
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	if entry, err := fs.resolve(path); err == nil {
		if entry.IsDirectory() {
			return nil
		}
		return checkpoint.From(ErrNotADirectory)
	}

	return fs.vol.Mkdir(path)
}

func (fs *Fs) Open(name string) (afero.File, error) {
	entry, err := fs.resolve(name)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	return &File{
		fs:       fs.vol,
		entry:    entry,
		readable: true,
	}, nil
}

func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&os.O_TRUNC != 0 {
		return nil, checkpoint.From(ErrUnsupported)
	}

	entry, err := fs.resolve(name)
	if errors.Is(err, ErrEntryNotFound) && flag&os.O_CREATE != 0 {
		if err := fs.vol.Create(name); err != nil {
			return nil, checkpoint.From(err)
		}
		entry, err = fs.resolve(name)
	}
	if err != nil {
		return nil, checkpoint.From(err)
	}

	file := &File{
		fs:       fs.vol,
		entry:    entry,
		readable: flag&os.O_WRONLY == 0,
		writable: flag&(os.O_WRONLY|os.O_RDWR) != 0,
	}

	if file.writable && entry.IsDirectory() {
		return nil, checkpoint.From(ErrNotAFile)
	}

	if flag&os.O_APPEND != 0 {
		file.offset = int64(entry.Size)
	}

	return file, nil
}

func (fs *Fs) Remove(name string) error {
	entry, err := fs.resolve(name)
	if err != nil {
		return checkpoint.From(err)
	}

	if entry.IsDirectory() {
		return fs.vol.Rmdir(name)
	}
	return fs.vol.Remove(name)
}

func (fs *Fs) RemoveAll(path string) error {
	entry, err := fs.resolve(path)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil
		}
		return checkpoint.From(err)
	}

	fs.vol.removeTree(entry)
	return nil
}

// removeTree deletes an entry and, for directories, everything below it.
// The root directory itself is kept; only its children go.
func (v *Volume) removeTree(entry dirEntry) {
	if entry.IsDirectory() {
		for _, child := range v.entries(entry.Cluster) {
			if child.Name == "." || child.Name == ".." {
				continue
			}
			v.removeTree(child)
		}
	}

	// The root and synthesized entries have no record to rewrite.
	if entry.Cluster == v.bpb.RootCluster || entry.Location == 0 {
		return
	}

	delete(v.openFiles, entry.Name)
	v.deleteEntry(entry)
}

func (fs *Fs) Rename(oldname, newname string) error {
	return checkpoint.From(ErrUnsupported)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	entry, err := fs.resolve(name)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	return entry.FileInfo(), nil
}

func (fs *Fs) Name() string {
	return "fatvol"
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return checkpoint.From(ErrUnsupported)
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return checkpoint.From(ErrUnsupported)
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return checkpoint.From(ErrUnsupported)
}
