// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 dm32prog contributors

package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/dm32dev/dm32prog/pkg/dm32"
)

// runWithProgress executes op while rendering the session's progress events:
// an animated bar on a terminal, plain phase lines when output is piped.
func runWithProgress(s *dm32.Session, op func() error) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return runProgressTUI(s, op)
	}
	return runProgressPlain(s, op)
}

func runProgressPlain(s *dm32.Session, op func() error) error {
	done := make(chan error, 1)
	go func() { done <- op() }()

	var last dm32.Phase
	for {
		select {
		case ev := <-s.Progress():
			if ev.Phase != last {
				color.Cyan("==> %s", ev.Phase)
				last = ev.Phase
			}
			if ev.Percent == 100 {
				fmt.Printf("    %s\n", ev.Message)
			}
		case err := <-done:
			return err
		}
	}
}

type progressMsg dm32.ProgressEvent
type opDoneMsg struct{ err error }

var (
	phaseStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type progressModel struct {
	bar     progress.Model
	phase   dm32.Phase
	percent int
	message string
	err     error
}

func newProgressModel() progressModel {
	return progressModel{bar: progress.New(progress.WithDefaultGradient())}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.phase = msg.Phase
		m.percent = msg.Percent
		m.message = msg.Message
		return m, nil
	case opDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = msg.Width - 24
		if m.bar.Width > 60 {
			m.bar.Width = 60
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.phase == "" {
		return ""
	}
	return fmt.Sprintf("%s %s  %s\n",
		phaseStyle.Render(fmt.Sprintf("%-8s", string(m.phase))),
		m.bar.ViewAs(float64(m.percent)/100),
		messageStyle.Render(m.message))
}

func runProgressTUI(s *dm32.Session, op func() error) error {
	p := tea.NewProgram(newProgressModel())

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case ev := <-s.Progress():
				p.Send(progressMsg(ev))
			case <-stop:
				return
			}
		}
	}()
	go func() { p.Send(opDoneMsg{err: op()}) }()

	final, err := p.Run()
	close(stop)
	if err != nil {
		return err
	}
	if m, ok := final.(progressModel); ok {
		return m.err
	}
	return nil
}
