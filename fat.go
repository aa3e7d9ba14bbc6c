package fatvol

import (
	"github.com/aligator/fatvol/checkpoint"
)

// fatSector returns the sector of the first FAT mirror holding the entry of
// the given cluster.
func (v *Volume) fatSector(cluster uint32) uint32 {
	return uint32(v.bpb.ReservedSectorCount) + cluster*4/uint32(v.bpb.BytesPerSector)
}

// fatEntryOffset returns the byte offset of the cluster's entry within its
// FAT sector.
func (v *Volume) fatEntryOffset(cluster uint32) uint32 {
	return cluster * 4 % uint32(v.bpb.BytesPerSector)
}

// readFAT returns the FAT entry of the cluster, read from the first mirror.
func (v *Volume) readFAT(cluster uint32) fatEntry {
	location := int64(v.fatSector(cluster))*int64(v.bpb.BytesPerSector) + int64(v.fatEntryOffset(cluster))
	return fatEntry(v.img.ReadU32(location))
}

// writeFAT stores the 28-bit value in the cluster's entry of every FAT
// mirror. The reserved high nibble of each existing entry is preserved.
func (v *Volume) writeFAT(cluster, value uint32) {
	for i := uint8(0); i < v.bpb.NumFATs; i++ {
		sector := v.fatSector(cluster) + uint32(i)*v.bpb.FATSize32
		location := int64(sector)*int64(v.bpb.BytesPerSector) + int64(v.fatEntryOffset(cluster))

		word := v.img.ReadU32(location)
		word = word&^uint32(fatMask) | value&fatMask
		v.img.WriteU32(word, location)
	}
}

// setFreeCount updates the in-memory free cluster count and the FSInfo
// sector together so the two never diverge.
func (v *Volume) setFreeCount(count uint32) {
	v.freeClusters = count
	v.img.WriteU32(count, int64(v.bpb.FSInfoSector)*int64(v.bpb.BytesPerSector)+fsInfoFreeCountOffset)
}

// totalClusters returns the number of cluster slots on the volume, counting
// the two reserved ones.
func (v *Volume) totalClusters() uint32 {
	return (v.bpb.TotalSectors32-v.firstDataSector)/uint32(v.bpb.SectorsPerCluster) + firstCluster
}

// findFreeCluster finds the lowest free cluster by scanning the FAT.
func (v *Volume) findFreeCluster() (uint32, error) {
	if v.freeClusters == 0 {
		return 0, checkpoint.From(ErrInsufficientSpace)
	}

	total := v.totalClusters()
	for cluster := uint32(firstCluster); cluster < total; cluster++ {
		if v.readFAT(cluster).IsFree() {
			return cluster, nil
		}
	}

	// The FSInfo count promised a free cluster but the scan found none.
	return 0, checkpoint.From(ErrInsufficientSpace)
}

// allocateCluster claims a free cluster, links it behind prev if prev is
// nonzero and terminates it with the end-of-chain mark. The free count
// decreases by one.
func (v *Volume) allocateCluster(prev uint32) (uint32, error) {
	cluster, err := v.findFreeCluster()
	if err != nil {
		return 0, checkpoint.From(err)
	}

	if prev != 0 {
		v.writeFAT(prev, cluster)
	}
	v.writeFAT(cluster, eocMark)

	v.setFreeCount(v.freeClusters - 1)

	return cluster, nil
}
