// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 dm32prog contributors

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dm32dev/dm32prog/pkg/codeplug"
)

var writeYes bool

var writeCmd = &cobra.Command{
	Use:   "write <snapshot file>",
	Short: "Write a snapshot file to the radio",
	Long: `Write a previously saved snapshot back to the radio.

The radio's current configuration is read first; the snapshot's channels,
zones and scan lists are then encoded into it and the complete configuration
is sent back. Blocks the snapshot does not change are re-sent as read, which
is what the radio expects.

An interrupted write leaves the radio in an undefined state; run read again
to verify before trusting it.`,
	Args: cobra.ExactArgs(1),
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().BoolVarP(&writeYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(writeCmd)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func runWrite(cmd *cobra.Command, args []string) error {
	cp, err := codeplug.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot: %s\n", cp.Summary())
	if !writeYes && !confirm("Program this configuration to the radio?") {
		fmt.Println("Aborted.")
		return nil
	}

	s := newSession()
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		return err
	}
	defer s.Disconnect()

	err = runWithProgress(s, func() error {
		// The write path rebuilds blocks from the device's own layout, so
		// the current configuration is read first.
		if err := s.BulkRead(ctx); err != nil {
			return fmt.Errorf("read current configuration: %w", err)
		}
		if err := s.WriteChannels(ctx, cp.Channels); err != nil {
			return fmt.Errorf("write channels: %w", err)
		}
		if len(cp.Zones) > 0 {
			if err := s.WriteZones(ctx, cp.Zones); err != nil {
				return fmt.Errorf("write zones: %w", err)
			}
		}
		if writableScanLists(cp) {
			if err := s.WriteScanLists(ctx, cp.ScanLists); err != nil {
				return fmt.Errorf("write scan lists: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println("Write complete.")
	for _, w := range s.Warnings() {
		color.Yellow("warning: %s", w)
	}
	return nil
}

// writableScanLists reports whether any snapshot scan list carries the
// in-block offsets needed to write it back. Lists without them have no known
// slot and are skipped with a warning by the engine.
func writableScanLists(cp *codeplug.Codeplug) bool {
	for _, sl := range cp.ScanLists {
		if sl.ListOffset > 0 {
			return true
		}
	}
	return false
}
