package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/skyline93/bigarray"
	"github.com/skyline93/bigarray/internal/bigarray/bigrange"
)

var cmdDump = &cobra.Command{
	Use:   "dump [file]",
	Short: "Load a newline-delimited integer file and print its block layout",
	Long: `
The "dump" command reads a newline-delimited integer file into a big
array of int64 and prints the cached block layout: index, common start
index, and element count for every BlockInfo it can resolve.
`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDump(dumpOptions, args[0])
	},
}

// DumpOptions bundles all options for the dump command.
type DumpOptions struct {
	DefaultBlockSize int
	MaxBlockSize     int
}

var dumpOptions DumpOptions

func init() {
	cmdRoot.AddCommand(cmdDump)

	f := cmdDump.Flags()
	f.IntVar(&dumpOptions.DefaultBlockSize, "default-block-size", 64, "target size for newly created blocks")
	f.IntVar(&dumpOptions.MaxBlockSize, "max-block-size", 128, "hard upper bound on any single block's length")
}

func runDump(opts DumpOptions, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var seed []int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %q: %w", line, err)
		}
		seed = append(seed, v)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	a, err := bigarray.NewFromSeed(seed, bigarray.Options{
		DefaultBlockSize: opts.DefaultBlockSize,
		MaxBlockSize:     opts.MaxBlockSize,
	})
	if err != nil {
		return err
	}

	fmt.Printf("length: %d\n", a.Len())

	n := a.Len()
	for i := 0; i < n; {
		info, err := a.BlockInfo(i, nil)
		if err != nil {
			return err
		}
		printBlockInfo(info)
		i = info.End()
	}
	return nil
}

func printBlockInfo(info bigrange.BlockInfo) {
	fmt.Printf("block %d: start=%d count=%d\n", info.IndexOfBlock, info.CommonStartIndex, info.Count)
}
