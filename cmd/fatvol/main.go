package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aligator/fatvol"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:      "fatvol",
		Usage:     "inspect and manipulate a FAT32 filesystem image",
		ArgsUsage: "<image>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log every command and engine error to stderr",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("usage: fatvol [--debug] <image>", 1)
	}

	logger := zap.NewNop()
	if c.Bool("debug") {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	defer logger.Sync()

	image := c.Args().Get(0)
	vol, err := fatvol.Mount(image)
	if err != nil {
		logger.Error("mount failed", zap.String("image", image), zap.Error(err))
		return cli.Exit(fmt.Sprintf("Error: could not mount '%s'.", image), 1)
	}
	defer vol.Unmount()

	repl(vol, filepath.Base(image), logger)
	return nil
}

func repl(vol *fatvol.Volume, image string, logger *zap.Logger) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("[%s]> ", image)
		if !scanner.Scan() {
			return
		}

		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		logger.Debug("command", zap.Strings("fields", fields))

		if fields[0] == "exit" {
			return
		}

		dispatch(vol, line, fields, logger)
	}
}

func dispatch(vol *fatvol.Volume, line string, fields []string, logger *zap.Logger) {
	verb, args := fields[0], fields[1:]

	fail := func(err error, name string) {
		logger.Debug("command failed", zap.String("verb", verb), zap.Error(err))
		fmt.Println(renderError(err, name))
	}

	switch verb {
	case "fsinfo":
		info := vol.FSInfo()
		fmt.Println("Bytes Per Sector:", info.BytesPerSector)
		fmt.Println("Sectors Per Cluster:", info.SectorsPerCluster)
		fmt.Println("Total Sectors:", info.TotalSectors)
		fmt.Println("Number of FATS:", info.NumFATs)
		fmt.Println("Sectors per FAT:", info.SectorsPerFAT)
		fmt.Println("Number of Free Sectors:", info.FreeSectors)

	case "ls":
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		names, err := vol.List(name)
		if err != nil {
			fail(err, name)
			return
		}
		fmt.Println(strings.Join(names, " "))

	case "cd":
		if len(args) < 1 {
			usage(verb)
			return
		}
		if err := vol.ChangeDir(args[0]); err != nil {
			fail(err, args[0])
		}

	case "size":
		if len(args) < 1 {
			usage(verb)
			return
		}
		size, err := vol.AllocatedSize(args[0])
		if err != nil {
			fail(err, args[0])
			return
		}
		fmt.Printf("'%s' has %d allocated bytes.\n", args[0], size)

	case "open":
		if len(args) < 2 {
			usage(verb)
			return
		}
		mode := fatvol.Mode(args[1])
		if err := vol.OpenFile(args[0], mode); err != nil {
			if errors.Is(err, fatvol.ErrWrongMode) {
				fmt.Println("Error: Invalid mode. Valid modes are r, w, and rw.")
				return
			}
			fail(err, args[0])
			return
		}
		fmt.Printf("'%s' has been opened with %s permission.\n", args[0], describeMode(mode))

	case "close":
		if len(args) < 1 {
			usage(verb)
			return
		}
		if err := vol.CloseFile(args[0]); err != nil {
			fail(err, args[0])
			return
		}
		fmt.Printf("'%s' is now closed.\n", args[0])

	case "create":
		if len(args) < 1 {
			usage(verb)
			return
		}
		if err := vol.Create(args[0]); err != nil {
			fail(err, args[0])
		}

	case "read":
		if len(args) < 3 {
			usage(verb)
			return
		}
		start, err1 := strconv.ParseUint(args[1], 10, 32)
		count, err2 := strconv.ParseUint(args[2], 10, 32)
		if err1 != nil || err2 != nil {
			usage(verb)
			return
		}
		data, err := vol.ReadAt(args[0], int64(start), int(count))
		if err != nil {
			fail(err, args[0])
			return
		}
		fmt.Println(string(data))

	case "write":
		if len(args) < 3 {
			usage(verb)
			return
		}
		start, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			usage(verb)
			return
		}
		data, ok := quotedData(line)
		if !ok {
			fmt.Println("Error: write data must be given in double quotes.")
			return
		}
		if err := vol.WriteAt(args[0], int64(start), []byte(data)); err != nil {
			fail(err, args[0])
			return
		}
		fmt.Printf("Wrote \"%s\" to %d:%s of length %d\n", data, start, args[0], len(data))

	case "rm":
		if len(args) < 1 {
			usage(verb)
			return
		}
		if err := vol.Remove(args[0]); err != nil {
			fail(err, args[0])
		}

	case "mkdir":
		if len(args) < 1 {
			usage(verb)
			return
		}
		if err := vol.Mkdir(args[0]); err != nil {
			fail(err, args[0])
		}

	case "rmdir":
		if len(args) < 1 {
			usage(verb)
			return
		}
		if err := vol.Rmdir(args[0]); err != nil {
			fail(err, args[0])
		}

	case "undelete":
		recovered := vol.Undelete()
		fmt.Printf("Recovered %d file(s).\n", recovered)

	default:
		fmt.Printf("Error: unknown command '%s'.\n", verb)
	}
}

// quotedData extracts the double-quoted data argument of a write command.
func quotedData(line string) (string, bool) {
	first := strings.Index(line, "\"")
	last := strings.LastIndex(line, "\"")
	if first < 0 || last <= first {
		return "", false
	}
	return line[first+1 : last], true
}

func describeMode(mode fatvol.Mode) string {
	switch mode {
	case fatvol.ModeRead:
		return "read-only"
	case fatvol.ModeWrite:
		return "write-only"
	default:
		return "read-write"
	}
}

func usage(verb string) {
	usages := map[string]string{
		"cd":     "cd <directory>",
		"size":   "size <name>",
		"open":   "open <file> <r|w|rw>",
		"close":  "close <file>",
		"create": "create <file>",
		"read":   "read <file> <start> <count>",
		"write":  "write <file> <start> \"<data>\"",
		"rm":     "rm <file>",
		"mkdir":  "mkdir <directory>",
		"rmdir":  "rmdir <directory>",
	}
	fmt.Println("usage:", usages[verb])
}

func renderError(err error, name string) string {
	switch {
	case errors.Is(err, fatvol.ErrInvalidName):
		return "Error: name may not contain '/' or invalid characters."
	case errors.Is(err, fatvol.ErrEntryNotFound):
		return fmt.Sprintf("Error: '%s' not found.", name)
	case errors.Is(err, fatvol.ErrNotAFile):
		return fmt.Sprintf("Error: '%s' is not a file.", name)
	case errors.Is(err, fatvol.ErrNotADirectory):
		return fmt.Sprintf("Error: '%s' is not a directory.", name)
	case errors.Is(err, fatvol.ErrEntryExists):
		return fmt.Sprintf("'%s' already exists.", name)
	case errors.Is(err, fatvol.ErrDirectoryNotEmpty):
		return fmt.Sprintf("Error: '%s' is not empty.", name)
	case errors.Is(err, fatvol.ErrAlreadyOpen):
		return fmt.Sprintf("Error: '%s' is already open.", name)
	case errors.Is(err, fatvol.ErrNotOpen):
		return fmt.Sprintf("'%s' not found in the open file table.", name)
	case errors.Is(err, fatvol.ErrWrongMode):
		return fmt.Sprintf("Error: '%s' is not open for this access.", name)
	case errors.Is(err, fatvol.ErrOutOfRange):
		return "Error: start position is past the end of the file."
	case errors.Is(err, fatvol.ErrInsufficientSpace):
		return "Error: insufficient space for write request."
	default:
		return "Error: " + err.Error()
	}
}
