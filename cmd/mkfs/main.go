// Command mkfs builds the kernel's embedded filesystem table: it walks a
// host skeleton directory and emits a Go source file that seeds
// rvkernel/kernel/fs.Table with every file's contents, keyed by its
// slash-rooted path within the skeleton. The generated file is compiled
// into the kernel image, which is how user binaries like /init and /test1
// reach exec.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"rvkernel/kernel/fs"
)

var (
	outPath string
	maxSize int64
)

func main() {
	cmd := &cobra.Command{
		Use:   "mkfs <skeleton-dir>",
		Short: "generate the kernel's embedded filesystem table from a host directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "kernel/fs/table_gen.go", "path of the generated Go source file")
	cmd.Flags().Int64Var(&maxSize, "max-file-size", 128*1024, "largest file the kernel's exec path will accept")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// entry is one file collected from the skeleton.
type entry struct {
	name string
	data []byte
}

func run(skelDir string) error {
	entries, err := collect(skelDir)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := emit(out, entries); err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Printf("mkfs: %s (%d bytes)\n", e.name, len(e.data))
	}
	return nil
}

// collect walks the skeleton directory and reads every regular file,
// chunking reads at the filesystem block size the way the kernel will
// consume them.
func collect(skelDir string) ([]entry, error) {
	var entries []entry

	err := filepath.WalkDir(skelDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(path, strings.TrimSuffix(skelDir, "/"))
		if !strings.HasPrefix(rel, "/") {
			rel = "/" + rel
		}

		data, err := readChunked(path)
		if err != nil {
			return err
		}
		if int64(len(data)) > maxSize {
			return fmt.Errorf("%s: %d bytes exceeds the %d byte exec limit", rel, len(data), maxSize)
		}

		entries = append(entries, entry{name: rel, data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}

// readChunked reads the file at path in fs.BSIZE-sized chunks.
func readChunked(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data []byte
	buf := make([]byte, fs.BSIZE)
	for {
		n, readErr := f.Read(buf)
		data = append(data, buf[:n]...)
		if readErr == io.EOF {
			return data, nil
		}
		if readErr != nil {
			return nil, readErr
		}
	}
}

// emit writes the generated Go source.
func emit(w io.Writer, entries []entry) error {
	if _, err := fmt.Fprintf(w, "// Code generated by mkfs. DO NOT EDIT.\n\npackage fs\n\nfunc init() {\n\tTable = []Entry{\n"); err != nil {
		return err
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "\t\t{Name: %q, Data: []byte{", e.name); err != nil {
			return err
		}
		for i, b := range e.data {
			if i%16 == 0 {
				if _, err := io.WriteString(w, "\n\t\t\t"); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "0x%02x, ", b); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n\t\t}},\n"); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\t}\n}\n")
	return err
}
