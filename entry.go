package fatvol

import (
	"strings"
	"time"
)

// dirEntry is the decoded form of one 32-byte directory record. Name holds
// the presentation form (lowercase, dot-separated); Location is the byte
// offset of the record within the image and identifies the entry for
// in-place updates.
type dirEntry struct {
	Name      string
	Attribute uint8
	WriteTime uint16
	WriteDate uint16
	Cluster   uint32
	Size      uint32
	Location  int64

	// firstNameByte keeps the raw first byte of the on-disk name, which
	// distinguishes free (0xE5) and last-free (0x00) slots from live
	// entries.
	firstNameByte byte
}

// IsDirectory reports whether the entry describes a directory.
func (e dirEntry) IsDirectory() bool {
	return e.Attribute&attrDirectory != 0
}

// IsFile reports whether the entry describes a file.
func (e dirEntry) IsFile() bool {
	return e.Attribute&attrDirectory == 0
}

// IsLongName reports whether the entry is a slot of a long filename. Long
// names are not interpreted, only skipped.
func (e dirEntry) IsLongName() bool {
	return e.Attribute&attrLongName == attrLongName
}

// IsFreeSlot reports whether the record slot is reusable.
func (e dirEntry) IsFreeSlot() bool {
	return e.firstNameByte == lastFreeEntryMark || e.firstNameByte == freeEntryMark
}

// isShortNameByte reports whether b may appear in a decoded 8.3 name:
// the space pad or any printable ASCII character.
func isShortNameByte(b byte) bool {
	return b == shortNamePad || (b >= 0x21 && b <= 0x7E)
}

// fromShortName converts the 11-byte on-disk form into the presentation
// form: lowercased, with a dot inserted at the first run of padding if any
// extension characters follow. The names "." and ".." pass through
// unchanged.
func fromShortName(raw []byte) string {
	var name strings.Builder
	addDot := false
	addedDot := false

	for _, b := range raw {
		if !isShortNameByte(b) {
			continue
		}

		if b == shortNamePad {
			addDot = true
			continue
		}

		if addDot && !addedDot {
			name.WriteByte('.')
			addedDot = true
		}

		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		name.WriteByte(b)
	}

	return name.String()
}

// toShortName converts a presentation name into the 11-byte on-disk form:
// uppercase, base left-justified in 8 bytes and extension in 3 bytes, both
// space-padded. The names "." and ".." are encoded literally.
func toShortName(name string) [11]byte {
	var short [11]byte
	for i := range short {
		short[i] = shortNamePad
	}

	if name == "." || name == ".." {
		copy(short[:], name)
		return short
	}

	upper := func(b byte) byte {
		if b >= 'a' && b <= 'z' {
			return b - ('a' - 'A')
		}
		return b
	}

	if dot := strings.Index(name, "."); dot >= 0 {
		base := name[:dot]
		extension := name[dot+1:]

		for i := 0; i < 8 && i < len(base); i++ {
			short[i] = upper(base[i])
		}
		for i := 0; i < 3 && i < len(extension); i++ {
			short[8+i] = upper(extension[i])
		}
		return short
	}

	for i := 0; i < 11 && i < len(name); i++ {
		short[i] = upper(name[i])
	}
	return short
}

// formCluster combines the high and low halves of a cluster number as they
// are stored at bytes 20-21 and 26-27 of a directory record.
func formCluster(high, low uint16) uint32 {
	return uint32(low) | uint32(high)<<16
}

// readDirEntry decodes the 32-byte record at the given image offset.
func readDirEntry(img *Image, location int64) dirEntry {
	raw := img.Bytes(location, 11)

	entry := dirEntry{
		Name:      fromShortName(raw),
		Attribute: img.ReadU8(location + 11),
		WriteTime: img.ReadU16(location + 22),
		WriteDate: img.ReadU16(location + 24),
		Cluster:   formCluster(img.ReadU16(location+20), img.ReadU16(location+26)),
		Size:      img.ReadU32(location + 28),
		Location:  location,
	}
	if len(raw) > 0 {
		entry.firstNameByte = raw[0]
	}

	return entry
}

// writeDirEntry encodes the entry into its 32-byte record. The reserved
// byte and the creation and access timestamps are zeroed.
func writeDirEntry(img *Image, entry dirEntry) {
	short := toShortName(entry.Name)
	copy(img.Bytes(entry.Location, 11), short[:])

	img.WriteU8(entry.Attribute, entry.Location+11)
	img.WriteU8(0, entry.Location+12)
	img.WriteU8(0, entry.Location+13)
	img.WriteU16(0, entry.Location+14)
	img.WriteU16(0, entry.Location+16)
	img.WriteU16(0, entry.Location+18)
	img.WriteU16(uint16(entry.Cluster>>16), entry.Location+20)
	img.WriteU16(entry.WriteTime, entry.Location+22)
	img.WriteU16(entry.WriteDate, entry.Location+24)
	img.WriteU16(uint16(entry.Cluster&0xFFFF), entry.Location+26)
	img.WriteU32(entry.Size, entry.Location+28)
}

// stampWriteTime sets the entry's last-write timestamp to the local
// wall-clock time.
func stampWriteTime(entry *dirEntry) {
	now := time.Now()
	entry.WriteDate = PackDate(now)
	entry.WriteTime = PackTime(now)
}
