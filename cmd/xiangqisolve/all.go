package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/herohde/xiangqisolve/internal/db"
	"github.com/herohde/xiangqisolve/internal/engine"
	"github.com/seekerror/logw"
	"github.com/spf13/cobra"
)

func newAllCmd(ctx context.Context) *cobra.Command {
	var memGiB uint64
	var threads int
	var force bool

	cmd := &cobra.Command{
		Use:   "all <max-pieces>",
		Short: "Solve every legal canonical tier with piece count at most max-pieces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			maxPieces, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid max-pieces %q: %w", args[0], err)
			}

			store, err := db.New(dataDir)
			if err != nil {
				return err
			}
			d := engine.New(ctx, store, engine.WithOptions(engineOptions(memGiB, threads, force)))

			results, err := d.SolveAll(ctx, maxPieces)
			if err != nil {
				return err
			}

			var tiers []string
			for t := range results.Solved {
				tiers = append(tiers, t)
			}
			sort.Strings(tiers)
			for _, t := range tiers {
				s := results.Solved[t]
				fmt.Printf("%v: legal=%v win=%v lose=%v draw=%v\n", t, s.Legal, s.Win, s.Lose, s.Draw)
			}
			for t, err := range results.Failed {
				logw.Errorf(ctx, "tier %v failed: %v", t, err)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&memGiB, "mem", 0, "per-tier memory budget in GiB (0 = unbounded)")
	cmd.Flags().IntVar(&threads, "threads", 0, "S4 worker pool size (0 = sequential)")
	cmd.Flags().BoolVar(&force, "force", false, "re-solve even already-committed tiers")
	return cmd
}
