package main

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skyline93/bigarray"
)

var cmdBench = &cobra.Command{
	Use:   "bench",
	Short: "Run a mixed insert/remove/range workload against a byte array",
	Long: `
The "bench" command builds a big array of bytes seeded from random data,
runs a mix of inserts, removals, and range reads against it, and prints
the final length and a timing summary.
`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(benchOptions)
	},
}

// BenchOptions bundles all options for the bench command.
type BenchOptions struct {
	DefaultBlockSize int
	MaxBlockSize     int
	Count            int
	Ops              int
}

var benchOptions BenchOptions

func init() {
	cmdRoot.AddCommand(cmdBench)

	f := cmdBench.Flags()
	f.IntVar(&benchOptions.DefaultBlockSize, "default-block-size", 64, "target size for newly created blocks")
	f.IntVar(&benchOptions.MaxBlockSize, "max-block-size", 128, "hard upper bound on any single block's length")
	f.IntVar(&benchOptions.Count, "count", 100000, "number of bytes to seed the array with")
	f.IntVar(&benchOptions.Ops, "ops", 10000, "number of mixed insert/remove/range operations to run")
}

func runBench(opts BenchOptions) error {
	seed := make([]byte, opts.Count)
	if _, err := rand.Read(seed); err != nil {
		return err
	}

	a, err := bigarray.NewFromSeed(seed, bigarray.Options{
		DefaultBlockSize: opts.DefaultBlockSize,
		MaxBlockSize:     opts.MaxBlockSize,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	for i := 0; i < opts.Ops; i++ {
		n := a.Len()
		if n == 0 {
			break
		}
		switch i % 3 {
		case 0:
			if err := a.Insert(n/2, byte(i)); err != nil {
				return err
			}
		case 1:
			if err := a.RemoveAt(n / 3); err != nil {
				return err
			}
		default:
			readCount := 16
			if n < readCount {
				readCount = n
			}
			if _, err := a.Range(0, readCount); err != nil {
				return err
			}
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("final length: %d\n", a.Len())
	fmt.Printf("operations: %d in %s (%s/op)\n", opts.Ops, elapsed, elapsed/time.Duration(opts.Ops))
	return nil
}
