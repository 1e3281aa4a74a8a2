package main

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/aflc/internal/aflc"
	"github.com/san-kum/aflc/internal/analysis"
	"github.com/san-kum/aflc/internal/config"
	"github.com/san-kum/aflc/internal/dynamo"
)

func stepResponse(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var initial dynamo.Vec4
	copy(initial[:], cfg.InitialState()[:4])
	target := lastTarget(cfg)

	var (
		times []float64
		poses []dynamo.Vec4
		label = "reference model"
	)
	if closedLoop {
		label = "closed loop"
		times, poses, err = closedLoopStep(cfg)
	} else {
		times, poses, err = referenceStep(cfg, initial, target)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s step: %v -> %v (band %.1f%%)\n\n", label, initial, dynamo.Vec4(target), 100*band)

	for i, name := range axisNames {
		y := make([]float64, len(poses))
		for k, p := range poses {
			y[k] = p[i]
		}

		r, err := analysis.MeasureStep(times, y, initial[i], target[i], band)
		if errors.Is(err, analysis.ErrNoStep) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		fmt.Println(asciigraph.Plot(y,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		))
		fmt.Printf("%-6s %s\n\n", name, r)
	}
	return nil
}

func referenceStep(cfg *config.Config, initial dynamo.Vec4, target [4]float64) ([]float64, []dynamo.Vec4, error) {
	g, err := cfg.Gains()
	if err != nil {
		return nil, nil, err
	}
	ref, err := aflc.NewReferenceModel(g.Beta, g.Dt)
	if err != nil {
		return nil, nil, err
	}
	if err := ref.Build(); err != nil {
		return nil, nil, err
	}
	ref.Init(initial, dynamo.Vec4{})

	n := int(math.Round(cfg.Duration / cfg.Dt))
	times := make([]float64, 0, n)
	poses := make([]dynamo.Vec4, 0, n)
	for k := 1; k <= n; k++ {
		if err := ref.Update(target); err != nil {
			return nil, nil, err
		}
		times = append(times, float64(k)*cfg.Dt)
		poses = append(poses, ref.Position())
	}
	return times, poses, nil
}

func closedLoopStep(cfg *config.Config) ([]float64, []dynamo.Vec4, error) {
	s, sc, err := buildSim(cfg)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.Run(context.Background(), sc)
	if err != nil {
		return nil, nil, err
	}

	times := make([]float64, len(result.Samples))
	poses := make([]dynamo.Vec4, len(result.Samples))
	for i, smp := range result.Samples {
		times[i] = smp.T
		poses[i] = smp.Eta
	}
	return times, poses, nil
}
