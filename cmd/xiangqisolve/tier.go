package main

import (
	"context"
	"fmt"

	"github.com/herohde/xiangqisolve/internal/db"
	"github.com/herohde/xiangqisolve/internal/engine"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/spf13/cobra"
)

func newTierCmd(ctx context.Context) *cobra.Command {
	var memGiB uint64
	var threads int
	var force bool

	cmd := &cobra.Command{
		Use:   "tier <tier-name>",
		Short: "Resolve dependencies and solve a single tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.New(dataDir)
			if err != nil {
				return err
			}
			d := engine.New(ctx, store, engine.WithOptions(engineOptions(memGiB, threads, force)))

			stats, err := d.SolveTier(ctx, args[0])
			if err != nil {
				// Per-tier failure (e.g. OOM) is reported, not a usage
				// error: the process still exits 0.
				logw.Errorf(ctx, "tier %v failed: %v", args[0], err)
				return nil
			}
			fmt.Printf("%v: legal=%v win=%v lose=%v draw=%v\n", args[0], stats.Legal, stats.Win, stats.Lose, stats.Draw)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&memGiB, "mem", 0, "per-tier memory budget in GiB (0 = unbounded)")
	cmd.Flags().IntVar(&threads, "threads", 0, "S4 worker pool size (0 = sequential)")
	cmd.Flags().BoolVar(&force, "force", false, "re-solve even if the tier is already committed")
	return cmd
}
