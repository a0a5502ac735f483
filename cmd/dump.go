// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 dm32prog contributors

package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dm32dev/dm32prog/pkg/codeplug"
	"github.com/dm32dev/dm32prog/pkg/dm32"
)

var dumpTag string

var dumpCmd = &cobra.Command{
	Use:   "dump <snapshot file>",
	Short: "Hex dump the raw blocks of a snapshot",
	Long: `Hex dump the raw configuration blocks stored in a snapshot, with each
block's metadata tag, kind and device address. Useful when reverse engineering
record layouts: compare dumps taken before and after changing one setting in
the factory CPS.

--tag limits the dump to the block with that metadata tag (hex, e.g. 0x10).`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpTag, "tag", "t", "", "Only the block with this metadata tag (hex)")
	rootCmd.AddCommand(dumpCmd)
}

var dumpHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func runDump(cmd *cobra.Command, args []string) error {
	cp, err := codeplug.Load(args[0])
	if err != nil {
		return err
	}

	blocks := cp.Raw
	if dumpTag != "" {
		tag, err := strconv.ParseUint(dumpTag, 0, 8)
		if err != nil {
			return fmt.Errorf("bad tag %q: %w", dumpTag, err)
		}
		b, ok := cp.RawBlockByTag(byte(tag))
		if !ok {
			return fmt.Errorf("snapshot has no block with tag %#02x", tag)
		}
		blocks = []dm32.RawBlock{b}
	}

	for i, b := range blocks {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(dumpHeaderStyle.Render(
			fmt.Sprintf("block %#02x (%s) at %#06x, %d bytes", b.Tag, b.Kind, b.Address, len(b.Data))))
		fmt.Print(dm32.DumpBlock(b.Address, b.Data))
	}
	return nil
}
