package fatvol

import (
	"fmt"
)

// Undelete recovers recently deleted files in the current directory on a
// best-effort basis. Deletion zeroes every FAT link of a file, so only the
// first cluster can be brought back: the freed record still holds the first
// cluster number, its FAT entry is re-terminated and the size clamped to one
// cluster. Recovered files are renamed undel.1, undel.2, ... in the order
// the slots are visited, highest offset first within each cluster.
//
// It returns the number of files recovered.
func (v *Volume) Undelete() int {
	recovered := 0

	for _, cluster := range v.clusterChain(v.curDirCluster) {
		base := v.clusterOffset(cluster)

		for offset := int64(v.bytesPerCluster) - dirEntrySize; offset >= 0; offset -= dirEntrySize {
			entry := readDirEntry(v.img, base+offset)

			if !entry.IsFreeSlot() || !entry.IsFile() || entry.Cluster == 0 {
				continue
			}

			v.writeFAT(entry.Cluster, eocMark)
			v.setFreeCount(v.freeClusters - 1)

			recovered++
			entry.Name = fmt.Sprintf("undel.%d", recovered)
			if entry.Size > v.bytesPerCluster {
				entry.Size = v.bytesPerCluster
			}

			writeDirEntry(v.img, entry)
		}
	}

	return recovered
}
