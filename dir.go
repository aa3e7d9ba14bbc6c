package fatvol

import (
	"github.com/aligator/fatvol/checkpoint"
)

// entries returns the live entries of the directory starting at the given
// cluster. Within each cluster the 32-byte slots are visited from the
// highest offset down to 0 and live entries are prepended, so the result
// lists entries in on-disk order within a cluster, with clusters in chain
// order. Free slots and long-name slots are skipped.
func (v *Volume) entries(cluster uint32) []dirEntry {
	var list []dirEntry

	for _, c := range v.clusterChain(cluster) {
		base := v.clusterOffset(c)

		var clusterList []dirEntry
		for offset := int64(v.bytesPerCluster) - dirEntrySize; offset >= 0; offset -= dirEntrySize {
			entry := readDirEntry(v.img, base+offset)

			if !entry.IsLongName() && !entry.IsFreeSlot() {
				clusterList = append([]dirEntry{entry}, clusterList...)
			}
		}

		list = append(list, clusterList...)
	}

	return list
}

// findEntry looks up a name within the directory at parent. The name "/"
// resolves to the root directory, "." to the directory itself and ".." to
// its actual parent (the root's parent is the root). A name equal to the
// current directory's name resolves to the current directory.
func (v *Volume) findEntry(name string, parent uint32) (dirEntry, error) {
	root := dirEntry{
		Name:      RootName,
		Attribute: attrDirectory,
		Cluster:   v.bpb.RootCluster,
	}

	switch name {
	case RootName:
		return root, nil
	case ".":
		return dirEntry{
			Name:      v.curDirName,
			Attribute: attrDirectory,
			Cluster:   parent,
		}, nil
	case "..":
		if parent == v.bpb.RootCluster {
			return root, nil
		}
		for _, entry := range v.entries(parent) {
			if entry.Name != ".." {
				continue
			}
			cluster := entry.Cluster
			if cluster == 0 {
				return root, nil
			}
			return dirEntry{
				Name:      v.directoryName(cluster),
				Attribute: attrDirectory,
				Cluster:   cluster,
			}, nil
		}
		return root, nil
	case v.curDirName:
		return dirEntry{
			Name:      v.curDirName,
			Attribute: attrDirectory,
			Cluster:   parent,
		}, nil
	}

	for _, entry := range v.entries(parent) {
		if entry.Name == name {
			return entry, nil
		}
	}

	return dirEntry{}, checkpoint.From(ErrEntryNotFound)
}

// directoryName resolves the presentation name of the directory at the
// given cluster by looking it up in its parent. The root is named "/".
func (v *Volume) directoryName(cluster uint32) string {
	if cluster == v.bpb.RootCluster {
		return RootName
	}

	parent := v.bpb.RootCluster
	for _, entry := range v.entries(cluster) {
		if entry.Name == ".." {
			if entry.Cluster != 0 {
				parent = entry.Cluster
			}
			break
		}
	}

	for _, entry := range v.entries(parent) {
		if entry.IsDirectory() && entry.Cluster == cluster {
			return entry.Name
		}
	}

	return RootName
}

// entryExists reports whether a name is present in the directory at parent.
// The root name always exists.
func (v *Volume) entryExists(name string, parent uint32) bool {
	if name == RootName {
		return true
	}

	for _, entry := range v.entries(parent) {
		if entry.Name == name {
			return true
		}
	}

	return false
}

// createEntry creates a file or directory entry in the directory at parent.
// The record goes into a free slot of the parent's chain; if none is left, a
// fresh cluster is linked to the chain first. The new entry always gets one
// content cluster. Capacity is validated before anything is written so a
// full volume leaves no partial state behind.
func (v *Volume) createEntry(name string, parent uint32, directory bool) error {
	chain := v.clusterChain(parent)

	var location int64
	foundSlot := false

	for _, cluster := range chain {
		base := v.clusterOffset(cluster)

		for offset := int64(v.bytesPerCluster) - dirEntrySize; offset >= 0; offset -= dirEntrySize {
			if readDirEntry(v.img, base+offset).IsFreeSlot() {
				location = base + offset
				foundSlot = true
			}
		}
	}

	needed := uint32(1)
	if !foundSlot {
		needed = 2
	}
	if v.freeClusters < needed {
		return checkpoint.From(ErrInsufficientSpace)
	}

	if !foundSlot {
		cluster, err := v.allocateCluster(chain[len(chain)-1])
		if err != nil {
			return checkpoint.From(err)
		}
		v.zeroCluster(cluster)
		location = v.clusterOffset(cluster)
	}

	content, err := v.allocateCluster(0)
	if err != nil {
		return checkpoint.From(err)
	}

	entry := dirEntry{
		Name:      name,
		Attribute: attrArchive,
		Cluster:   content,
		Size:      0,
		Location:  location,
	}
	if directory {
		entry.Attribute = attrDirectory
	}
	stampWriteTime(&entry)

	writeDirEntry(v.img, entry)

	if directory {
		v.zeroCluster(content)

		dot := dirEntry{
			Name:      ".",
			Attribute: attrDirectory,
			WriteTime: entry.WriteTime,
			WriteDate: entry.WriteDate,
			Cluster:   content,
			Location:  v.clusterOffset(content),
		}
		dotDot := dot
		dotDot.Name = ".."
		dotDot.Cluster = parent
		dotDot.Location += dirEntrySize

		writeDirEntry(v.img, dot)
		writeDirEntry(v.img, dotDot)
	}

	return nil
}

// deleteEntry frees the entry's cluster chain tail-first and marks the
// 32-byte record as last-free by zeroing the first name byte.
func (v *Volume) deleteEntry(entry dirEntry) {
	chain := v.clusterChain(entry.Cluster)

	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i] == 0 {
			continue
		}
		v.writeFAT(chain[i], freeCluster)
		v.setFreeCount(v.freeClusters + 1)
	}

	entry.Name = string([]byte{lastFreeEntryMark})
	writeDirEntry(v.img, entry)
}

// allocatedSize returns the number of bytes backed by the entry's cluster
// chain, which for a fresh file is one full cluster regardless of its size.
func (v *Volume) allocatedSize(entry dirEntry) uint64 {
	return uint64(len(v.clusterChain(entry.Cluster))) * uint64(v.bytesPerCluster)
}

// zeroCluster clears the data of a cluster. Fresh directory clusters have to
// start out zeroed so every slot reads as last-free.
func (v *Volume) zeroCluster(cluster uint32) {
	data := v.img.Bytes(v.clusterOffset(cluster), int64(v.bytesPerCluster))
	for i := range data {
		data[i] = 0
	}
}
