package fatvol

import (
	"encoding/binary"
	"os"

	"github.com/aligator/fatvol/checkpoint"
	"golang.org/x/sys/unix"
)

// Image is the random-access byte store over a filesystem image. The file is
// mapped shared and read-write, so every write lands in the OS page cache and
// reaches the image file at the latest on Close.
type Image struct {
	file *os.File
	data []byte
}

// OpenImage opens the image file read-write and maps it into memory.
func OpenImage(path string) (*Image, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrMountFailed)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, checkpoint.Wrap(err, ErrMountFailed)
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, checkpoint.Wrap(err, ErrMountFailed)
	}

	return &Image{
		file: file,
		data: data,
	}, nil
}

// Size returns the size of the mapped image in bytes.
func (img *Image) Size() int64 {
	return int64(len(img.data))
}

// Bytes returns the image window [offset, offset+n). Writing to the returned
// slice writes to the image. It returns a shortened or nil slice if the
// window does not fit inside the image.
func (img *Image) Bytes(offset, n int64) []byte {
	if offset < 0 || offset >= int64(len(img.data)) {
		return nil
	}
	if offset+n > int64(len(img.data)) {
		n = int64(len(img.data)) - offset
	}
	return img.data[offset : offset+n]
}

func (img *Image) ReadU8(offset int64) uint8 {
	b := img.Bytes(offset, 1)
	if len(b) < 1 {
		return 0
	}
	return b[0]
}

func (img *Image) ReadU16(offset int64) uint16 {
	b := img.Bytes(offset, 2)
	if len(b) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (img *Image) ReadU32(offset int64) uint32 {
	b := img.Bytes(offset, 4)
	if len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (img *Image) WriteU8(value uint8, offset int64) {
	b := img.Bytes(offset, 1)
	if len(b) < 1 {
		return
	}
	b[0] = value
}

func (img *Image) WriteU16(value uint16, offset int64) {
	b := img.Bytes(offset, 2)
	if len(b) < 2 {
		return
	}
	binary.LittleEndian.PutUint16(b, value)
}

func (img *Image) WriteU32(value uint32, offset int64) {
	b := img.Bytes(offset, 4)
	if len(b) < 4 {
		return
	}
	binary.LittleEndian.PutUint32(b, value)
}

// Flush posts all outstanding writes of the mapping to the image file.
func (img *Image) Flush() error {
	return checkpoint.From(unix.Msync(img.data, unix.MS_SYNC))
}

// Close flushes the mapping, unmaps it and closes the file descriptor. The
// Image must not be used afterwards.
func (img *Image) Close() error {
	if img.data != nil {
		if err := unix.Msync(img.data, unix.MS_SYNC); err != nil {
			return checkpoint.From(err)
		}
		if err := unix.Munmap(img.data); err != nil {
			return checkpoint.From(err)
		}
		img.data = nil
	}
	if img.file != nil {
		if err := img.file.Close(); err != nil {
			return checkpoint.From(err)
		}
		img.file = nil
	}
	return nil
}
