package fatvol

import "errors"

// These errors cover every way a volume operation can fail. All of them are
// recoverable except ErrMountFailed: the engine state is unchanged and
// subsequent operations proceed normally.
var (
	// ErrMountFailed means the image could not be opened, mapped or did not
	// contain a usable FAT32 volume. A volume in this state must not be used.
	ErrMountFailed = errors.New("could not mount the filesystem image")

	// ErrInvalidName means a name contains '/' where not permitted, is '.'
	// or '..' where not permitted, uses a forbidden byte or exceeds the 8.3
	// length limits.
	ErrInvalidName = errors.New("invalid entry name")

	// ErrEntryNotFound means no entry of that name exists in the directory.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrNotAFile means the operation expected a file but found a directory.
	ErrNotAFile = errors.New("entry is not a file")

	// ErrNotADirectory means the operation expected a directory but found a
	// file.
	ErrNotADirectory = errors.New("entry is not a directory")

	// ErrEntryExists means an entry of that name already exists.
	ErrEntryExists = errors.New("entry already exists")

	// ErrDirectoryNotEmpty means rmdir was called on a directory that still
	// contains entries other than '.' and '..'.
	ErrDirectoryNotEmpty = errors.New("directory is not empty")

	// ErrAlreadyOpen means the file is already present in the open file
	// table.
	ErrAlreadyOpen = errors.New("file is already open")

	// ErrNotOpen means the file is not present in the open file table.
	ErrNotOpen = errors.New("file is not open")

	// ErrWrongMode means the file is open but not with a mode that permits
	// the requested access. OpenFile also returns it for a mode other than
	// "r", "w" or "rw".
	ErrWrongMode = errors.New("file is not open for this access")

	// ErrOutOfRange means a read started past the end of the file.
	ErrOutOfRange = errors.New("start position is past the end of the file")

	// ErrInsufficientSpace means a write would need more clusters than the
	// volume has free.
	ErrInsufficientSpace = errors.New("insufficient space on the volume")

	// ErrUnsupported is returned by filesystem interface methods the FAT32
	// short-name engine cannot express, like Rename or Chmod.
	ErrUnsupported = errors.New("operation not supported on a FAT32 volume")
)
