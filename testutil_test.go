package fatvol

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// formatImage builds a fresh FAT32 image in a temp directory and returns its
// path: 1024 sectors of 512 bytes, one sector per cluster, 32 reserved
// sectors and two FAT mirrors of 8 sectors each. Cluster 2 holds the empty
// root directory, leaving 975 clusters free.
func formatImage(t *testing.T) string {
	t.Helper()

	const (
		sectors    = 1024
		sectorSize = 512
		fatBase    = 32 * sectorSize
		mirrorBase = 40 * sectorSize
	)

	img := make([]byte, sectors*sectorSize)

	// Boot sector.
	copy(img[0:], []byte{0xEB, 0x3C, 0x90})
	copy(img[3:], "fatvol  ")
	binary.LittleEndian.PutUint16(img[11:], sectorSize)
	img[13] = 1                                  // sectors per cluster
	binary.LittleEndian.PutUint16(img[14:], 32)  // reserved sectors
	img[16] = 2                                  // number of FATs
	img[21] = 0xF8                               // media descriptor
	binary.LittleEndian.PutUint32(img[32:], sectors)
	binary.LittleEndian.PutUint32(img[36:], 8) // sectors per FAT
	binary.LittleEndian.PutUint32(img[44:], 2) // root cluster
	binary.LittleEndian.PutUint16(img[48:], 1) // FSInfo sector
	binary.LittleEndian.PutUint16(img[510:], 0xAA55)

	// FSInfo sector.
	binary.LittleEndian.PutUint32(img[sectorSize:], 0x41615252)
	binary.LittleEndian.PutUint32(img[sectorSize+484:], 0x61417272)
	binary.LittleEndian.PutUint32(img[sectorSize+488:], 975)
	binary.LittleEndian.PutUint32(img[sectorSize+492:], 3)
	binary.LittleEndian.PutUint32(img[sectorSize+508:], 0xAA550000)

	// FAT mirrors: media entry, reserved entry and the root directory.
	for _, base := range []int{fatBase, mirrorBase} {
		binary.LittleEndian.PutUint32(img[base:], 0x0FFFFFF8)
		binary.LittleEndian.PutUint32(img[base+4:], 0x0FFFFFFF)
		binary.LittleEndian.PutUint32(img[base+8:], eocMark)
	}

	path := filepath.Join(t.TempDir(), "test.img")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func mountTestVolume(t *testing.T) *Volume {
	t.Helper()

	vol, err := Mount(formatImage(t))
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	t.Cleanup(func() {
		if err := vol.Unmount(); err != nil {
			t.Errorf("Unmount() error = %v", err)
		}
	})

	return vol
}

// countFreeFAT counts the zero entries of the first FAT mirror.
func countFreeFAT(vol *Volume) uint32 {
	var free uint32
	for cluster := uint32(firstCluster); cluster < vol.totalClusters(); cluster++ {
		if vol.readFAT(cluster).IsFree() {
			free++
		}
	}
	return free
}

func fatMirrorsEqual(vol *Volume) bool {
	base := int64(vol.bpb.ReservedSectorCount) * int64(vol.bpb.BytesPerSector)
	size := int64(vol.bpb.FATSize32) * int64(vol.bpb.BytesPerSector)

	first := vol.img.Bytes(base, size)
	for i := uint8(1); i < vol.bpb.NumFATs; i++ {
		if !bytes.Equal(first, vol.img.Bytes(base+int64(i)*size, size)) {
			return false
		}
	}
	return true
}

// assertInvariants checks the volume-wide invariants that have to hold after
// every operation: the FSInfo free count matches the FAT census and all
// mirrors are identical.
func assertInvariants(t *testing.T, vol *Volume) {
	t.Helper()

	if got := countFreeFAT(vol); got != vol.freeClusters {
		t.Errorf("free cluster count = %d, FAT census = %d", vol.freeClusters, got)
	}
	if disk := vol.img.ReadU32(int64(vol.bpb.FSInfoSector)*int64(vol.bpb.BytesPerSector) + fsInfoFreeCountOffset); disk != vol.freeClusters {
		t.Errorf("FSInfo free count on disk = %d, in memory = %d", disk, vol.freeClusters)
	}
	if !fatMirrorsEqual(vol) {
		t.Error("FAT mirrors differ")
	}
}
