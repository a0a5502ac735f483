// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 dm32prog contributors

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dm32dev/dm32prog/pkg/codeplug"
	"github.com/dm32dev/dm32prog/pkg/dm32"
)

var readCmd = &cobra.Command{
	Use:   "read [snapshot file]",
	Short: "Read the radio's configuration into a snapshot file",
	Long: `Read the complete configuration from the radio and save it as a snapshot
file (default: codeplug.dm32).

The radio is read once, block by block, and disconnected as soon as the
transfer finishes. The snapshot carries every decoded record plus the raw
blocks, so it can be written back byte-exact even where the format is not
fully understood.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	path := "codeplug.dm32"
	if len(args) == 1 {
		path = args[0]
	}

	s := newSession()
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		return err
	}
	defer s.Disconnect()

	var res *dm32.Result
	err := runWithProgress(s, func() error {
		var err error
		res, err = s.ReadAll(ctx)
		return err
	})
	if err != nil {
		return err
	}

	cp := codeplug.FromResult(res)
	if err := codeplug.Save(path, cp); err != nil {
		return err
	}

	fmt.Printf("Saved %s: %s\n", path, cp.Summary())
	for _, w := range res.Warnings {
		color.Yellow("warning: %s", w)
	}
	fmt.Printf("%d blocks, %d bytes in %s\n",
		res.Stats.BlocksRead, res.Stats.BytesRead,
		(res.Stats.HandshakeTime + res.Stats.DiscoverTime + res.Stats.ReadTime).Round(10*time.Millisecond))
	return nil
}
