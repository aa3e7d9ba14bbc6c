package fatvol

import (
	"github.com/aligator/fatvol/checkpoint"
)

// clusterChain returns the ordered list of clusters starting at start,
// following the FAT links up to the end-of-chain mark. A start cluster of 0
// yields the sentinel chain [0], meaning no cluster is assigned yet.
func (v *Volume) clusterChain(start uint32) []uint32 {
	var chain []uint32

	cluster := start
	for {
		chain = append(chain, cluster)

		next := v.readFAT(cluster)
		if next.IsEOC() {
			break
		}
		cluster = next.Value()
	}

	return chain
}

// resizeChain extends the chain to length clusters and returns the extended
// chain. It never shrinks a chain. If the chain is the [0] sentinel, the
// first allocation replaces the sentinel; every further cluster is linked
// behind the current tail.
func (v *Volume) resizeChain(length int, chain []uint32) ([]uint32, error) {
	if length <= len(chain) {
		return chain, nil
	}

	if len(chain) == 1 && chain[0] == 0 {
		cluster, err := v.allocateCluster(0)
		if err != nil {
			return chain, checkpoint.From(err)
		}
		chain = []uint32{cluster}
	}

	for len(chain) < length {
		cluster, err := v.allocateCluster(chain[len(chain)-1])
		if err != nil {
			return chain, checkpoint.From(err)
		}
		chain = append(chain, cluster)
	}

	return chain, nil
}

// clusterOffset returns the byte offset of the cluster's data within the
// image.
func (v *Volume) clusterOffset(cluster uint32) int64 {
	sector := int64(cluster-firstCluster)*int64(v.bpb.SectorsPerCluster) + int64(v.firstDataSector)
	return sector * int64(v.bpb.BytesPerSector)
}

// readData reads up to n bytes of the entry's content starting at the byte
// position start. The count is clamped so that no byte at or past the
// entry's size is returned; a start position past the size is an error.
func (v *Volume) readData(entry *dirEntry, start int64, n int) ([]byte, error) {
	if start > int64(entry.Size) {
		return nil, checkpoint.From(ErrOutOfRange)
	}

	if int64(n) > int64(entry.Size)-start {
		n = int(int64(entry.Size) - start)
	}
	if n <= 0 {
		return nil, nil
	}

	chain := v.clusterChain(entry.Cluster)
	bytesPerCluster := int64(v.bytesPerCluster)

	data := make([]byte, 0, n)
	first := int(start / bytesPerCluster)

	for i := first; i < len(chain) && len(data) < n; i++ {
		offset := v.clusterOffset(chain[i])
		length := bytesPerCluster

		if i == first {
			offset += start % bytesPerCluster
			length -= start % bytesPerCluster
		}
		if remaining := int64(n - len(data)); length > remaining {
			length = remaining
		}

		data = append(data, v.img.Bytes(offset, length)...)
	}

	return data, nil
}

// writeData writes p into the entry's content starting at the byte position
// start, extending the cluster chain as needed. The capacity check happens
// before any mutation: if the volume cannot hold the grown file, nothing
// changes. On growth the 32-byte record is updated in place and the entry
// value is refreshed.
//
// Bytes between the old size and start are not zeroed; whatever the
// underlying clusters held before stays readable.
func (v *Volume) writeData(entry *dirEntry, start int64, p []byte) error {
	chain := v.clusterChain(entry.Cluster)

	required := start + int64(len(p))
	allocated := int64(len(chain)) * int64(v.bytesPerCluster)

	if required > allocated {
		additional := (required - allocated + int64(v.bytesPerCluster) - 1) / int64(v.bytesPerCluster)
		if additional > int64(v.freeClusters) {
			return checkpoint.From(ErrInsufficientSpace)
		}

		var err error
		chain, err = v.resizeChain(len(chain)+int(additional), chain)
		if err != nil {
			return checkpoint.From(err)
		}
	}

	if required > int64(entry.Size) {
		v.growFile(entry, uint32(required), chain)
	}

	bytesPerCluster := int64(v.bytesPerCluster)
	first := int(start / bytesPerCluster)
	written := 0

	for i := first; i < len(chain) && written < len(p); i++ {
		offset := v.clusterOffset(chain[i])
		length := bytesPerCluster

		if i == first {
			offset += start % bytesPerCluster
			length -= start % bytesPerCluster
		}

		written += copy(v.img.Bytes(offset, length), p[written:])
	}

	return nil
}

// growFile records the new size and first cluster of the entry in its
// 32-byte record and marks it archived.
func (v *Volume) growFile(entry *dirEntry, size uint32, chain []uint32) {
	entry.Cluster = chain[0]
	entry.Size = size
	entry.Attribute |= attrArchive

	v.img.WriteU8(entry.Attribute, entry.Location+11)
	v.img.WriteU16(uint16(entry.Cluster>>16), entry.Location+20)
	v.img.WriteU16(uint16(entry.Cluster&0xFFFF), entry.Location+26)
	v.img.WriteU32(entry.Size, entry.Location+28)
}
