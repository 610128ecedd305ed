// xiangqisolve is a retrograde tier solver for Xiangqi (Chinese Chess)
// endgames (spec.md §1). It solves a tier database under a data root,
// one canonical tier at a time, using the tier tree scheduler to
// resolve dependencies first.
package main

import (
	"context"
	"os"

	"github.com/herohde/xiangqisolve/internal/engine"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/spf13/cobra"
)

var dataDir string

var version = build.NewVersion(0, 1, 0)

// engineOptions builds a Driver's Options from the CLI's shared --mem,
// --threads and --force flags. A zero flag value leaves the
// corresponding Option unset rather than forwarding a meaningless
// budget of zero.
func engineOptions(memGiB uint64, threads int, force bool) engine.Options {
	var opts engine.Options
	if memGiB > 0 {
		opts.MemoryBudget = lang.Some(memGiB << 30)
	}
	if threads > 0 {
		opts.Concurrency = lang.Some(threads)
	}
	opts.Force = force
	return opts
}

func main() {
	ctx := context.Background()

	root := &cobra.Command{
		Use:           "xiangqisolve",
		Short:         "Retrograde tier solver for Xiangqi endgame databases",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dataDir, "data", "../data", "tier database root directory")

	root.AddCommand(newTierCmd(ctx))
	root.AddCommand(newAllCmd(ctx))
	root.AddCommand(newFileCmd(ctx))
	root.AddCommand(newCheckCmd(ctx))

	if err := root.Execute(); err != nil {
		logw.Errorf(ctx, "xiangqisolve: %v", err)
		os.Exit(1)
	}
}
