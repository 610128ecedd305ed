package main

import (
	"context"
	"fmt"

	"github.com/herohde/xiangqisolve/internal/db"
	"github.com/herohde/xiangqisolve/internal/engine"
	"github.com/spf13/cobra"
)

func newCheckCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <tier-name>",
		Short: "Report a tier's on-disk integrity status without solving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.New(dataDir)
			if err != nil {
				return err
			}
			d := engine.New(ctx, store)

			status, err := d.CheckTier(args[0])
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}
	return cmd
}
