// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 dm32prog contributors

package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the connected radio's identity",
	Long: `Connect to the radio and print what it reports about itself: model,
firmware version, serial number and configuration memory range. Nothing is
read from or written to configuration memory.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

var infoLabelStyle = lipgloss.NewStyle().Bold(true).Width(14)

func infoLine(label, value string) {
	if value == "" {
		value = "(not reported)"
	}
	fmt.Printf("%s %s\n", infoLabelStyle.Render(label), value)
}

func runInfo(cmd *cobra.Command, args []string) error {
	s := newSession()
	if err := s.Connect(context.Background()); err != nil {
		return err
	}
	defer s.Disconnect()

	info := s.DeviceInfo()
	infoLine("Model", info.Model)
	infoLine("Firmware", info.Firmware)
	infoLine("Build date", info.BuildDate)
	infoLine("Serial", info.Serial)
	infoLine("Config memory", fmt.Sprintf("%#x .. %#x (%d blocks)",
		info.ConfigStart, info.ConfigEnd, (info.ConfigEnd-info.ConfigStart)/4096))
	if len(info.BandLimits) > 0 {
		infoLine("Band limits", fmt.Sprintf("% X", info.BandLimits))
	}
	return nil
}
