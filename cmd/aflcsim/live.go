package main

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/aflc/internal/config"
	"github.com/san-kum/aflc/internal/viz"
)

func runLive(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal; logs only go to a file.
	if logFile == "" {
		logger = log.New(io.Discard)
	}

	if !(speed > 0) {
		return fmt.Errorf("speed must be positive, got %v", speed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	launch := func(name string) (viz.Model, error) {
		preset = name
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return viz.Model{}, err
		}
		s, sc, err := buildSim(cfg)
		if err != nil {
			return viz.Model{}, err
		}
		interval := time.Duration(cfg.Dt / speed * float64(time.Second))
		return viz.Start(ctx, cfg.Name, s, sc, interval).WithTheme(themeName), nil
	}

	var model tea.Model
	if preset == "" && configFile == "" {
		model = viz.NewPicker(config.ListPresets(), launch)
	} else {
		m, err := launch(preset)
		if err != nil {
			return err
		}
		model = m
	}

	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
