package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"pmmkit/kernel/kfmt"
	"pmmkit/kernel/mem"
)

// defaultRegions mirrors the memory map reported by qemu for a machine with
// 128M of RAM.
var defaultRegions = []string{
	"0x0:0x9fc00:usable",
	"0x9fc00:0x400:reserved",
	"0xf0000:0x10000:reserved",
	"0x100000:0x7ee0000:usable",
	"0x7fe0000:0x20000:reserved",
	"0xfffc0000:0x40000:reserved",
}

// options holds the flags shared by all commands.
type options struct {
	verbose  bool
	pageSize uint64
	regions  []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pmmsim",
		Short: "Simulate the physical frame allocator",
		Long: `pmmsim builds the bitmap frame allocator on top of a synthetic memory
map and reports how frames are tracked, reserved and handed out. Physical
memory is backed by an anonymous mapping so the allocator can host its
metadata exactly as it does at boot.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// The allocator logs through kfmt; only surface it on request
			if opts.verbose {
				kfmt.SetOutputSink(cmd.ErrOrStderr())
			} else {
				kfmt.SetOutputSink(io.Discard)
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().Uint64Var(&opts.pageSize, "page-size", uint64(mem.PageSize), "Frame size in bytes (power of 2)")
	cmd.PersistentFlags().StringArrayVar(&opts.regions, "region", defaultRegions, "Memory map entry as base:length:kind (repeatable)")

	cmd.AddCommand(newMapCmd(opts), newAllocCmd(opts))
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
