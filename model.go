// File model contains the structs and constants which match the on-disk
// structures of a FAT32 volume.

package fatvol

const (
	// Cluster values 0 and 1 are reserved; data clusters start at 2.
	freeCluster  = 0x00000000
	firstCluster = 2

	// fatMask selects the 28 significant bits of a FAT32 entry. The high
	// nibble is reserved and has to be preserved on writes.
	fatMask = 0x0FFFFFFF

	// eocMark is written to terminate a chain; every value at or above it
	// reads as end-of-chain.
	eocMark = 0x0FFFFFF8

	dirEntrySize = 32

	freeEntryMark     = 0xE5
	lastFreeEntryMark = 0x00
	shortNamePad      = 0x20

	attrReadOnly  = 0x01
	attrHidden    = 0x02
	attrSystem    = 0x04
	attrVolumeID  = 0x08
	attrDirectory = 0x10
	attrArchive   = 0x20
	attrLongName  = attrReadOnly | attrHidden | attrSystem | attrVolumeID

	// FSInfo sector layout.
	fsInfoFreeCountOffset = 488
	fsInfoNextFreeOffset  = 492
)

// bootSector matches the first 90 bytes of sector 0 including the FAT32
// specific part of the BPB. All integers are little-endian on disk.
type bootSector struct {
	JumpBoot            [3]byte
	OEMName             [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectorCount uint16
	NumFATs             uint8
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               uint8
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumHeads            uint16
	HiddenSectors       uint32
	TotalSectors32      uint32
	FATSize32           uint32
	ExtFlags            uint16
	FSVersion           uint16
	RootCluster         uint32
	FSInfoSector        uint16
	BackupBootSector    uint16
	Reserved            [12]byte
	DriveNumber         uint8
	Reserved1           uint8
	BootSignature       uint8
	VolumeID            uint32
	VolumeLabel         [11]byte
	FSType              [8]byte
}

// fatEntry is one 32-bit slot of the file allocation table. Only the low 28
// bits carry the link value.
type fatEntry uint32

// Value returns the 28-bit link value of the entry.
func (e fatEntry) Value() uint32 {
	return uint32(e) & fatMask
}

// IsFree reports whether the entry marks its cluster as unallocated.
func (e fatEntry) IsFree() bool {
	return e.Value() == freeCluster
}

// IsEOC reports whether the entry terminates a cluster chain.
func (e fatEntry) IsEOC() bool {
	return e.Value() >= eocMark
}
