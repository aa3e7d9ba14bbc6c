package fatvol

import (
	"errors"
	"testing"
)

func TestVolume_createAndFind(t *testing.T) {
	vol := mountTestVolume(t)

	if err := vol.Create("hello.txt"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	entry, err := vol.findEntry("hello.txt", vol.curDirCluster)
	if err != nil {
		t.Fatalf("findEntry() error = %v", err)
	}
	if !entry.IsFile() {
		t.Error("created entry is not a file")
	}
	if entry.Cluster < firstCluster {
		t.Errorf("created entry cluster = %d, want an allocated cluster", entry.Cluster)
	}
	if entry.Size != 0 {
		t.Errorf("created entry size = %d, want 0", entry.Size)
	}
	if !vol.readFAT(entry.Cluster).IsEOC() {
		t.Error("content chain is not terminated")
	}

	assertInvariants(t, vol)
}

func TestVolume_create_exists(t *testing.T) {
	vol := mountTestVolume(t)

	if err := vol.Create("a"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	before := vol.freeClusters
	if err := vol.Create("a"); !errors.Is(err, ErrEntryExists) {
		t.Errorf("Create() error = %v, want ErrEntryExists", err)
	}
	if vol.freeClusters != before {
		t.Errorf("free count changed from %d to %d on failed create", before, vol.freeClusters)
	}
}

func TestVolume_create_invalidNames(t *testing.T) {
	vol := mountTestVolume(t)

	names := []string{
		"",
		".",
		"..",
		"/",
		"a/b",
		"with space",
		"quote\"d",
		"colon:name",
		"star*",
		"toolongbase.txt",
		"base.long",
		"fartoolongname",
		"que?stion",
		"pipe|name",
	}

	for _, name := range names {
		if err := vol.Create(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Create(%q) error = %v, want ErrInvalidName", name, err)
		}
	}

	// 0x05 is only allowed as the first byte.
	if err := vol.Create("\x05lead"); err != nil {
		t.Errorf("Create() with leading 0x05 error = %v", err)
	}
	if err := vol.Create("tr\x05ail"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Create() with inner 0x05 error = %v, want ErrInvalidName", err)
	}
}

func TestVolume_entriesOrder(t *testing.T) {
	vol := mountTestVolume(t)

	names := []string{"one", "two", "three"}
	for _, name := range names {
		if err := vol.Create(name); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	entries := vol.entries(vol.curDirCluster)
	if len(entries) != len(names) {
		t.Fatalf("entries() returned %d entries, want %d", len(entries), len(names))
	}
	for i, name := range names {
		if entries[i].Name != name {
			t.Errorf("entries()[%d].Name = %q, want %q", i, entries[i].Name, name)
		}
	}
}

func TestVolume_mkdir_dotEntries(t *testing.T) {
	vol := mountTestVolume(t)

	if err := vol.Mkdir("sub"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	entry, err := vol.findEntry("sub", vol.curDirCluster)
	if err != nil {
		t.Fatalf("findEntry() error = %v", err)
	}
	if !entry.IsDirectory() {
		t.Fatal("created entry is not a directory")
	}

	base := vol.clusterOffset(entry.Cluster)

	dot := readDirEntry(vol.img, base)
	if dot.Name != "." || !dot.IsDirectory() || dot.Cluster != entry.Cluster {
		t.Errorf("first slot = %q cluster %d, want %q cluster %d", dot.Name, dot.Cluster, ".", entry.Cluster)
	}

	dotDot := readDirEntry(vol.img, base+dirEntrySize)
	if dotDot.Name != ".." || !dotDot.IsDirectory() || dotDot.Cluster != vol.bpb.RootCluster {
		t.Errorf("second slot = %q cluster %d, want %q cluster %d", dotDot.Name, dotDot.Cluster, "..", vol.bpb.RootCluster)
	}

	assertInvariants(t, vol)
}

func TestVolume_removeRestoresFreeCount(t *testing.T) {
	vol := mountTestVolume(t)
	before := vol.freeClusters

	if err := vol.Create("x"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := vol.Remove("x"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if vol.freeClusters != before {
		t.Errorf("free count = %d, want %d", vol.freeClusters, before)
	}
	if vol.entryExists("x", vol.curDirCluster) {
		t.Error("removed entry still listed")
	}

	assertInvariants(t, vol)
}

func TestVolume_remove_directory(t *testing.T) {
	vol := mountTestVolume(t)

	if err := vol.Mkdir("d"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := vol.Remove("d"); !errors.Is(err, ErrNotAFile) {
		t.Errorf("Remove() on a directory error = %v, want ErrNotAFile", err)
	}
}

func TestVolume_rmdir(t *testing.T) {
	vol := mountTestVolume(t)
	before := vol.freeClusters

	if err := vol.Mkdir("d"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := vol.Rmdir("d"); err != nil {
		t.Fatalf("Rmdir() error = %v", err)
	}
	if vol.freeClusters != before {
		t.Errorf("free count = %d, want %d", vol.freeClusters, before)
	}

	assertInvariants(t, vol)
}

func TestVolume_rmdir_specialNames(t *testing.T) {
	vol := mountTestVolume(t)

	for _, name := range []string{".", "..", RootName} {
		if err := vol.Rmdir(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Rmdir(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestVolume_rmdir_notEmpty(t *testing.T) {
	vol := mountTestVolume(t)

	if err := vol.Mkdir("d"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := vol.ChangeDir("d"); err != nil {
		t.Fatalf("ChangeDir() error = %v", err)
	}
	if err := vol.Create("child"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := vol.ChangeDir(".."); err != nil {
		t.Fatalf("ChangeDir(..) error = %v", err)
	}

	entry, err := vol.findEntry("d", vol.curDirCluster)
	if err != nil {
		t.Fatalf("findEntry() error = %v", err)
	}
	chainBefore := vol.clusterChain(entry.Cluster)
	countBefore := vol.freeClusters

	if err := vol.Rmdir("d"); !errors.Is(err, ErrDirectoryNotEmpty) {
		t.Errorf("Rmdir() error = %v, want ErrDirectoryNotEmpty", err)
	}

	if vol.freeClusters != countBefore {
		t.Errorf("free count changed from %d to %d on failed rmdir", countBefore, vol.freeClusters)
	}
	chainAfter := vol.clusterChain(entry.Cluster)
	if len(chainAfter) != len(chainBefore) {
		t.Errorf("directory chain changed on failed rmdir")
	}
}

func TestVolume_findEntry_special(t *testing.T) {
	vol := mountTestVolume(t)

	if err := vol.Mkdir("outer"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := vol.ChangeDir("outer"); err != nil {
		t.Fatalf("ChangeDir() error = %v", err)
	}
	if err := vol.Mkdir("inner"); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}
	if err := vol.ChangeDir("inner"); err != nil {
		t.Fatalf("ChangeDir() error = %v", err)
	}

	// "." names the directory itself.
	self, err := vol.findEntry(".", vol.curDirCluster)
	if err != nil {
		t.Fatalf("findEntry(.) error = %v", err)
	}
	if self.Cluster != vol.curDirCluster || self.Name != "inner" {
		t.Errorf("findEntry(.) = %q cluster %d, want current directory", self.Name, self.Cluster)
	}

	// ".." resolves to the actual parent, not the root.
	parent, err := vol.findEntry("..", vol.curDirCluster)
	if err != nil {
		t.Fatalf("findEntry(..) error = %v", err)
	}
	if parent.Name != "outer" {
		t.Errorf("findEntry(..) = %q, want %q", parent.Name, "outer")
	}

	// "/" always resolves to the root.
	root, err := vol.findEntry(RootName, vol.curDirCluster)
	if err != nil {
		t.Fatalf("findEntry(/) error = %v", err)
	}
	if root.Cluster != vol.bpb.RootCluster {
		t.Errorf("findEntry(/) cluster = %d, want root", root.Cluster)
	}

	// Walking up twice ends at the root.
	if err := vol.ChangeDir(".."); err != nil {
		t.Fatalf("ChangeDir(..) error = %v", err)
	}
	if err := vol.ChangeDir(".."); err != nil {
		t.Fatalf("ChangeDir(..) error = %v", err)
	}
	if vol.CurrentDirectoryName() != RootName || vol.curDirCluster != vol.bpb.RootCluster {
		t.Errorf("current directory = %q cluster %d, want root", vol.CurrentDirectoryName(), vol.curDirCluster)
	}

	// The root's parent is the root itself.
	if err := vol.ChangeDir(".."); err != nil {
		t.Fatalf("ChangeDir(..) at root error = %v", err)
	}
	if vol.curDirCluster != vol.bpb.RootCluster {
		t.Error("cd .. at root left the root")
	}
}

func TestVolume_directorySlotExtension(t *testing.T) {
	vol := mountTestVolume(t)

	// One cluster holds 16 slots. Filling the root forces create to extend
	// the directory chain with a fresh cluster.
	for i := 0; i < 16; i++ {
		name := string(rune('a' + i))
		if err := vol.Create(name); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	if got := len(vol.clusterChain(vol.bpb.RootCluster)); got != 1 {
		t.Fatalf("root chain length = %d before extension, want 1", got)
	}

	if err := vol.Create("q.txt"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if got := len(vol.clusterChain(vol.bpb.RootCluster)); got != 2 {
		t.Errorf("root chain length = %d after extension, want 2", got)
	}
	if !vol.entryExists("q.txt", vol.bpb.RootCluster) {
		t.Error("entry created in the extension cluster is not listed")
	}

	assertInvariants(t, vol)
}
