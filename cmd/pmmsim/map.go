package main

import (
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"pmmkit/kernel/mem"
	"pmmkit/kernel/mem/pmm/allocator"
)

func newMapCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Show the memory map and the allocator layout built from it",
		Long: `The map command prints the memory map as reported, the usable regions
left after page alignment and the per-region state of a freshly initialized
allocator, including the region that hosts the allocator metadata.

Example:
  pmmsim map
  pmmsim map --page-size 16384
  pmmsim map --region 0x100000:0x4000:usable --region 0x200000:0x2000:usable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMap(cmd.OutOrStdout(), opts)
		},
	}
}

func runMap(w io.Writer, opts *options) (err error) {
	m, err := bootMachine(opts)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := m.shutdown(); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	p := message.NewPrinter(language.English)

	p.Fprintf(w, "memory map (%d entries):\n", len(m.regions))
	for _, region := range m.regions {
		p.Fprintf(w, "  [0x%010x - 0x%010x] %-18s %d bytes\n", region.Base, region.End(), region.Kind.String(), region.Length)
	}

	p.Fprintf(w, "\nusable regions (%d):\n", len(m.usable))
	for _, region := range m.usable {
		p.Fprintf(w, "  [0x%010x - 0x%010x] %d frames\n", region.Base, region.End(), mem.Size(region.Length).Pages(m.cfg.PageSize))
	}

	metaAddr, metaSize := m.alloc.MetadataAddr()
	p.Fprintf(w, "\nallocator metadata: %d bytes at 0x%x, %d frames reserved\n",
		uint64(metaSize), m.physAddr(metaAddr), m.alloc.ReservedFrames(),
	)

	m.alloc.VisitRegions(func(stats allocator.RegionStats) bool {
		marker := ""
		if stats.HostsMetadata {
			marker = " (metadata)"
		}
		p.Fprintf(w, "  [0x%010x - 0x%010x] %d of %d frames free%s\n", stats.StartAddr, stats.EndAddr, stats.FreeFrames, stats.Frames, marker)
		return true
	})

	p.Fprintf(w, "\nframe size: %d bytes, total frames: %d, free frames: %d\n",
		uint64(m.cfg.PageSize), m.alloc.TotalFrames(), m.alloc.FreeFrames(),
	)
	return nil
}
