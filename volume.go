package fatvol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/aligator/fatvol/checkpoint"
)

// RootName is the presentation name of the root directory.
const RootName = "/"

// Mode is the access mode a file is opened with.
type Mode string

const (
	ModeRead      Mode = "r"
	ModeWrite     Mode = "w"
	ModeReadWrite Mode = "rw"
)

func (m Mode) valid() bool {
	return m == ModeRead || m == ModeWrite || m == ModeReadWrite
}

func (m Mode) canRead() bool {
	return m == ModeRead || m == ModeReadWrite
}

func (m Mode) canWrite() bool {
	return m == ModeWrite || m == ModeReadWrite
}

// openFile is one row of the open file table.
type openFile struct {
	entry dirEntry
	mode  Mode
}

// Volume is a mounted FAT32 filesystem image. All operations resolve names
// within the current directory; Volume is not safe for concurrent use.
type Volume struct {
	img *Image
	bpb bootSector

	bytesPerCluster uint32
	firstDataSector uint32
	freeClusters    uint32

	curDirCluster uint32
	curDirName    string

	// openFiles is keyed by the presentation name, which is unique within
	// a directory and stable across in-place entry updates.
	openFiles map[string]*openFile
}

// VolumeInfo is the geometry and free-space summary of a mounted volume.
type VolumeInfo struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	TotalSectors      uint32
	NumFATs           uint8
	SectorsPerFAT     uint32
	FreeSectors       uint32
}

// Mount opens the image at path, maps it into memory and interprets its
// BIOS parameter block. It fails with ErrMountFailed if the image cannot be
// opened or does not look like a FAT32 volume.
func Mount(path string) (*Volume, error) {
	img, err := OpenImage(path)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrMountFailed)
	}

	v := &Volume{
		img:       img,
		openFiles: map[string]*openFile{},
	}

	if err := v.initialize(); err != nil {
		img.Close()
		return nil, checkpoint.Wrap(err, ErrMountFailed)
	}

	return v, nil
}

func (v *Volume) initialize() error {
	sector0 := v.img.Bytes(0, 512)
	if len(sector0) < 512 {
		return fmt.Errorf("image is smaller than one sector")
	}

	if err := binary.Read(bytes.NewReader(sector0), binary.LittleEndian, &v.bpb); err != nil {
		return err
	}

	if v.img.ReadU16(510) != 0xAA55 {
		return fmt.Errorf("missing boot sector signature")
	}

	// FAT only supports 512, 1024, 2048 and 4096 bytes per sector.
	switch v.bpb.BytesPerSector {
	case 512, 1024, 2048, 4096:
	default:
		return fmt.Errorf("invalid sector size %d", v.bpb.BytesPerSector)
	}

	// Sectors per cluster has to be a power of two and greater than 0.
	if v.bpb.SectorsPerCluster == 0 || v.bpb.SectorsPerCluster&(v.bpb.SectorsPerCluster-1) != 0 {
		return fmt.Errorf("invalid sectors per cluster %d", v.bpb.SectorsPerCluster)
	}

	if v.bpb.ReservedSectorCount == 0 {
		return fmt.Errorf("invalid reserved sector count")
	}

	if v.bpb.NumFATs == 0 {
		return fmt.Errorf("no FAT present")
	}

	// A FAT32 volume has no fixed root directory region and stores the FAT
	// size only in the 32-bit field.
	if v.bpb.RootEntryCount != 0 || v.bpb.FATSize32 == 0 || v.bpb.RootCluster < firstCluster {
		return fmt.Errorf("not a FAT32 volume")
	}

	v.bytesPerCluster = uint32(v.bpb.BytesPerSector) * uint32(v.bpb.SectorsPerCluster)
	v.firstDataSector = uint32(v.bpb.ReservedSectorCount) + uint32(v.bpb.NumFATs)*v.bpb.FATSize32

	v.freeClusters = v.img.ReadU32(int64(v.bpb.FSInfoSector)*int64(v.bpb.BytesPerSector) + fsInfoFreeCountOffset)

	v.curDirCluster = v.bpb.RootCluster
	v.curDirName = RootName

	return nil
}

// Unmount flushes the mapping and releases the image. The volume must not
// be used afterwards.
func (v *Volume) Unmount() error {
	return checkpoint.From(v.img.Close())
}

func (v *Volume) flush() error {
	return v.img.Flush()
}

// CurrentDirectoryName returns the presentation name of the current
// directory.
func (v *Volume) CurrentDirectoryName() string {
	return v.curDirName
}

// FSInfo returns the volume geometry and the current free-sector count.
func (v *Volume) FSInfo() VolumeInfo {
	return VolumeInfo{
		BytesPerSector:    v.bpb.BytesPerSector,
		SectorsPerCluster: v.bpb.SectorsPerCluster,
		TotalSectors:      v.bpb.TotalSectors32,
		NumFATs:           v.bpb.NumFATs,
		SectorsPerFAT:     v.bpb.FATSize32,
		FreeSectors:       v.freeClusters * uint32(v.bpb.SectorsPerCluster),
	}
}

// OpenFile adds the named file to the open file table with the given mode.
func (v *Volume) OpenFile(name string, mode Mode) error {
	if err := v.checkPathName(name); err != nil {
		return err
	}

	if !mode.valid() {
		return checkpoint.From(ErrWrongMode)
	}

	entry, err := v.findEntry(name, v.curDirCluster)
	if err != nil {
		return checkpoint.From(err)
	}

	if !entry.IsFile() {
		return checkpoint.From(ErrNotAFile)
	}

	if _, open := v.openFiles[entry.Name]; open {
		return checkpoint.From(ErrAlreadyOpen)
	}

	v.openFiles[entry.Name] = &openFile{
		entry: entry,
		mode:  mode,
	}

	return nil
}

// CloseFile removes the named file from the open file table.
func (v *Volume) CloseFile(name string) error {
	if err := v.checkPathName(name); err != nil {
		return err
	}

	if _, open := v.openFiles[name]; !open {
		return checkpoint.From(ErrNotOpen)
	}

	delete(v.openFiles, name)
	return nil
}

// Create creates an empty file in the current directory.
func (v *Volume) Create(name string) error {
	if err := v.checkNewName(name); err != nil {
		return err
	}

	if v.entryExists(name, v.curDirCluster) {
		return checkpoint.From(ErrEntryExists)
	}

	return v.createEntry(name, v.curDirCluster, false)
}

// Mkdir creates a subdirectory in the current directory, including its "."
// and ".." entries.
func (v *Volume) Mkdir(name string) error {
	if err := v.checkNewName(name); err != nil {
		return err
	}

	if v.entryExists(name, v.curDirCluster) {
		return checkpoint.From(ErrEntryExists)
	}

	return v.createEntry(name, v.curDirCluster, true)
}

// Remove deletes the named file from the current directory and frees its
// clusters. An open file is silently dropped from the open file table first.
func (v *Volume) Remove(name string) error {
	if err := v.checkPathName(name); err != nil {
		return err
	}

	entry, err := v.findEntry(name, v.curDirCluster)
	if err != nil {
		return checkpoint.From(err)
	}

	if !entry.IsFile() {
		return checkpoint.From(ErrNotAFile)
	}

	delete(v.openFiles, entry.Name)
	v.deleteEntry(entry)

	return nil
}

// Rmdir deletes the named directory, which may contain nothing but its "."
// and ".." entries.
func (v *Volume) Rmdir(name string) error {
	if err := v.checkPathName(name); err != nil {
		return err
	}

	entry, err := v.findEntry(name, v.curDirCluster)
	if err != nil {
		return checkpoint.From(err)
	}

	if !entry.IsDirectory() {
		return checkpoint.From(ErrNotADirectory)
	}

	// Synthesized entries like the root, "." and ".." have no 32-byte
	// record that could be rewritten.
	if entry.Location == 0 {
		return checkpoint.From(ErrInvalidName)
	}

	for _, child := range v.entries(entry.Cluster) {
		if child.Name != "." && child.Name != ".." {
			return checkpoint.From(ErrDirectoryNotEmpty)
		}
	}

	v.deleteEntry(entry)
	return nil
}

// ChangeDir makes the named directory the current one.
func (v *Volume) ChangeDir(name string) error {
	if err := v.checkPathName(name); err != nil {
		return err
	}

	entry, err := v.findEntry(name, v.curDirCluster)
	if err != nil {
		return checkpoint.From(err)
	}

	if !entry.IsDirectory() {
		return checkpoint.From(ErrNotADirectory)
	}

	v.curDirCluster = entry.Cluster
	v.curDirName = entry.Name

	return nil
}

// List returns the entry names of the named directory. An empty name lists
// the current directory.
func (v *Volume) List(name string) ([]string, error) {
	if name == "" {
		name = "."
	}

	if err := v.checkPathName(name); err != nil {
		return nil, err
	}

	entry, err := v.findEntry(name, v.curDirCluster)
	if err != nil {
		return nil, checkpoint.From(err)
	}

	if !entry.IsDirectory() {
		return nil, checkpoint.From(ErrNotADirectory)
	}

	var names []string
	for _, child := range v.entries(entry.Cluster) {
		names = append(names, child.Name)
	}

	return names, nil
}

// AllocatedSize returns the number of bytes backed by the named entry's
// cluster chain. This is the allocated size, not the file size.
func (v *Volume) AllocatedSize(name string) (uint64, error) {
	if err := v.checkPathName(name); err != nil {
		return 0, err
	}

	entry, err := v.findEntry(name, v.curDirCluster)
	if err != nil {
		return 0, checkpoint.From(err)
	}

	return v.allocatedSize(entry), nil
}

// ReadAt reads up to n bytes from the named open file starting at the byte
// position start. The file has to be open for reading. The count is clamped
// to the file size; a start position past the size is an error.
func (v *Volume) ReadAt(name string, start int64, n int) ([]byte, error) {
	if err := v.checkPathName(name); err != nil {
		return nil, err
	}

	open, ok := v.openFiles[name]
	if !ok {
		return nil, checkpoint.From(ErrNotOpen)
	}

	if !open.mode.canRead() {
		return nil, checkpoint.From(ErrWrongMode)
	}

	return v.readData(&open.entry, start, n)
}

// WriteAt writes p into the named open file starting at the byte position
// start, growing the file and its cluster chain as needed. The file has to
// be open for writing.
func (v *Volume) WriteAt(name string, start int64, p []byte) error {
	if err := v.checkPathName(name); err != nil {
		return err
	}

	open, ok := v.openFiles[name]
	if !ok {
		return checkpoint.From(ErrNotOpen)
	}

	if !open.mode.canWrite() {
		return checkpoint.From(ErrWrongMode)
	}

	return v.writeData(&open.entry, start, p)
}

// checkPathName rejects names containing '/' except the root name itself.
func (v *Volume) checkPathName(name string) error {
	if strings.Contains(name, "/") && name != RootName {
		return checkpoint.From(ErrInvalidName)
	}
	return nil
}

// invalidNameBytes are the bytes that may not appear in a new 8.3 entry
// name. 0x05 is special: as the first byte it is the historical encoding of
// a leading 0xE5 and stays allowed there.
var invalidNameBytes = [...]byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x06,
	0x07, 0x08, 0x09, 0x10, 0x11, 0x12,
	0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
	0x19, 0x20, 0x22, 0x2A, 0x2B, 0x2C,
	0x2F, 0x3A, 0x3B, 0x3C, 0x3D, 0x3E,
	0x3F, 0x5B, 0x5C, 0x5D, 0x7C,
}

const specialInvalidNameByte = 0x05

// checkNewName validates a name for create and mkdir: no path separator, no
// forbidden bytes, not "." or "..", and within the 8.3 length limits.
func (v *Volume) checkNewName(name string) error {
	if err := v.checkPathName(name); err != nil {
		return err
	}
	if name == RootName {
		return checkpoint.From(ErrInvalidName)
	}

	for i := 0; i < len(name); i++ {
		if name[i] == specialInvalidNameByte && i != 0 {
			return checkpoint.From(ErrInvalidName)
		}

		for _, invalid := range invalidNameBytes {
			if name[i] == invalid {
				return checkpoint.From(ErrInvalidName)
			}
		}
	}

	if name == "." || name == ".." {
		return checkpoint.From(ErrInvalidName)
	}

	if dot := strings.Index(name, "."); dot >= 0 {
		if dot > 8 || len(name)-dot-1 > 3 {
			return checkpoint.From(ErrInvalidName)
		}
	} else if len(name) > 11 {
		return checkpoint.From(ErrInvalidName)
	}

	if len(name) == 0 {
		return checkpoint.From(ErrInvalidName)
	}

	return nil
}
