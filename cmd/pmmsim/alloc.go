package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"pmmkit/kernel/mem/pmm"
	"pmmkit/kernel/mem/pmm/allocator"
)

type allocOptions struct {
	count     int
	freeEvery int
	touch     bool
}

func newAllocCmd(opts *options) *cobra.Command {
	aopts := &allocOptions{}

	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "Allocate and release frames",
		Long: `The alloc command initializes the allocator and reserves frames until the
requested count is reached or memory runs out. Allocated frames can then be
released again to exercise the free path.

Example:
  pmmsim alloc --count 16 --verbose
  pmmsim alloc --free-every 2 --touch
  pmmsim alloc --region 0x100000:0x4000:usable --region 0x200000:0x2000:usable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAlloc(cmd.OutOrStdout(), opts, aopts)
		},
	}

	cmd.Flags().IntVarP(&aopts.count, "count", "n", -1, "Number of frames to allocate (-1 allocates until memory runs out)")
	cmd.Flags().IntVar(&aopts.freeEvery, "free-every", 0, "Release every Nth allocated frame afterwards (0 disables)")
	cmd.Flags().BoolVar(&aopts.touch, "touch", false, "Write to every allocated frame through the direct map")
	return cmd
}

func runAlloc(w io.Writer, opts *options, aopts *allocOptions) (err error) {
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

	var frames []pmm.Frame
	for aopts.count < 0 || len(frames) < aopts.count {
		frame, kerr := m.alloc.AllocFrame()
		if kerr == allocator.ErrOutOfMemory {
			if aopts.count >= 0 {
				p.Fprintf(w, "out of memory after %d frames\n", len(frames))
			}
			break
		} else if kerr != nil {
			return fmt.Errorf("allocate frame %d: %w", len(frames), kerr)
		}

		if aopts.touch {
			m.touch(frame, 0xaa)
		}
		if opts.verbose {
			p.Fprintf(w, "alloc 0x%x\n", frame.Address())
		}
		frames = append(frames, frame)
	}

	var freed int
	if aopts.freeEvery > 0 {
		for i := 0; i < len(frames); i += aopts.freeEvery {
			if kerr := m.alloc.FreeFrame(frames[i]); kerr != nil {
				return fmt.Errorf("free frame 0x%x: %w", frames[i].Address(), kerr)
			}
			if opts.verbose {
				p.Fprintf(w, "free 0x%x\n", frames[i].Address())
			}
			freed++
		}
	}

	p.Fprintf(w, "allocated %d frames (%d bytes), freed %d frames\n",
		len(frames), uint64(len(frames))*uint64(m.cfg.PageSize), freed,
	)
	p.Fprintf(w, "free frames: %d of %d (%d reserved for metadata)\n",
		m.alloc.FreeFrames(), m.alloc.TotalFrames(), m.alloc.ReservedFrames(),
	)
	return nil
}
