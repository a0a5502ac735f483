// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 dm32prog contributors

package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dm32dev/dm32prog/pkg/codeplug"
	"github.com/dm32dev/dm32prog/pkg/dm32"
)

var channelsFile string

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Browse the channel list",
	Long: `Show the radio's channel list in a scrollable table.

Reads from the radio by default; --file browses a saved snapshot instead,
without touching the radio.`,
	RunE: runChannels,
}

func init() {
	channelsCmd.Flags().StringVarP(&channelsFile, "file", "f", "", "Browse a snapshot file instead of the radio")
	rootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, args []string) error {
	channels, err := loadChannels()
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		fmt.Println("No channels programmed.")
		return nil
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return browseChannels(channels)
	}
	printChannels(channels)
	return nil
}

func loadChannels() ([]dm32.Channel, error) {
	if channelsFile != "" {
		cp, err := codeplug.Load(channelsFile)
		if err != nil {
			return nil, err
		}
		return cp.Channels, nil
	}

	s := newSession()
	ctx := context.Background()
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	defer s.Disconnect()

	var res *dm32.Result
	err := runWithProgress(s, func() error {
		var err error
		res, err = s.ReadAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res.Channels, nil
}

func channelRow(c dm32.Channel) []string {
	tx := fmt.Sprintf("%.5f", c.TxFreqMHz)
	if c.ForbidTX {
		tx = "rx only"
	}
	return []string{
		strconv.Itoa(c.Index),
		c.Name,
		fmt.Sprintf("%.5f", c.RxFreqMHz),
		tx,
		c.Mode.String(),
		strconv.Itoa(int(c.ColorCode)),
		strconv.Itoa(int(c.Timeslot)),
		c.RxTone.String(),
		c.TxTone.String(),
	}
}

func printChannels(channels []dm32.Channel) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tName\tRX MHz\tTX MHz\tMode\tCC\tTS\tRX Tone\tTX Tone")
	for _, c := range channels {
		row := channelRow(c)
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprint(w, cell)
		}
		fmt.Fprintln(w)
	}
	w.Flush()
}

type channelTableModel struct {
	table table.Model
	total int
}

func (m channelTableModel) Init() tea.Cmd {
	return nil
}

func (m channelTableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 3)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

var channelHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

func (m channelTableModel) View() string {
	return m.table.View() + "\n" +
		channelHelpStyle.Render(fmt.Sprintf("%d channels - arrows to scroll, q to quit", m.total))
}

func browseChannels(channels []dm32.Channel) error {
	columns := []table.Column{
		{Title: "#", Width: 5},
		{Title: "Name", Width: 16},
		{Title: "RX MHz", Width: 10},
		{Title: "TX MHz", Width: 10},
		{Title: "Mode", Width: 7},
		{Title: "CC", Width: 3},
		{Title: "TS", Width: 3},
		{Title: "RX Tone", Width: 9},
		{Title: "TX Tone", Width: 9},
	}
	rows := make([]table.Row, 0, len(channels))
	for _, c := range channels {
		rows = append(rows, table.Row(channelRow(c)))
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	_, err := tea.NewProgram(channelTableModel{table: t, total: len(channels)}).Run()
	return err
}
