package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/herohde/xiangqisolve/internal/db"
	"github.com/herohde/xiangqisolve/internal/engine"
	"github.com/herohde/xiangqisolve/internal/tier"
	"github.com/seekerror/logw"
	"github.com/spf13/cobra"
)

func newFileCmd(ctx context.Context) *cobra.Command {
	var memGiB uint64
	var threads int
	var force bool

	cmd := &cobra.Command{
		Use:   "file <path>",
		Short: "Solve the transitive closure of the tiers named in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tiers, err := readTierList(ctx, args[0])
			if err != nil {
				return err
			}

			store, err := db.New(dataDir)
			if err != nil {
				return err
			}
			d := engine.New(ctx, store, engine.WithOptions(engineOptions(memGiB, threads, force)))

			results, err := d.SolveFile(ctx, tiers)
			if err != nil {
				return err
			}

			var solved []string
			for t := range results.Solved {
				solved = append(solved, t)
			}
			sort.Strings(solved)
			for _, t := range solved {
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

// readTierList reads one tier string per line, skipping blank lines
// and malformed entries rather than aborting the whole file (spec.md
// §7 "Malformed tier string ... reject with a diagnostic, continue").
func readTierList(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening tier list %q: %w", path, err)
	}
	defer f.Close()

	var tiers []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := tier.IsLegal(line); err != nil {
			logw.Errorf(ctx, "skipping malformed tier %q: %v", line, err)
			continue
		}
		tiers = append(tiers, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading tier list %q: %w", path, err)
	}
	return tiers, nil
}
