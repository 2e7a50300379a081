package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fcsched/internal/app"
	"fcsched/internal/eventbus"
	"fcsched/internal/sched"
	"fcsched/internal/sim"
	logx "fcsched/pkg/logx"
)

type simulateResult struct {
	Duration   time.Duration  `json:"duration"`
	Executions int            `json:"executions"`
	Events     map[string]int `json:"events"`
	Sim        sim.Stats      `json:"sim"`
	Scheduler  sched.Snapshot `json:"scheduler"`
}

func newSimulateCmd() *cobra.Command {
	var (
		duration time.Duration
		costFree bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the task set on a simulated clock and print statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if duration <= 0 {
				return fmt.Errorf("--duration must be > 0")
			}
			cfg, err := loadConfig(flagConfig, true)
			if err != nil {
				return err
			}
			level := flagLogLevel
			if level == "" {
				level = "warn"
			}
			log := logx.NewWriter(os.Stderr, level)

			bus := eventbus.New()
			events, unsub := bus.Subscribe(1024)
			defer unsub()

			core, err := app.NewCore(cfg, sched.NewSimClock(0), bus, log, nil)
			if err != nil {
				return err
			}
			if costFree {
				core.World.SetCostScale(0)
			}
			runs, err := core.Scheduler.RunFor(duration)
			if err != nil {
				return err
			}

			res := simulateResult{
				Duration:   duration,
				Executions: runs,
				Events:     map[string]int{},
				Sim:        core.World.Stats(),
				Scheduler:  core.Scheduler.Snapshot(),
			}
			for drained := false; !drained; {
				select {
				case e := <-events:
					res.Events[e.Type]++
				default:
					drained = true
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "simulated time to run")
	cmd.Flags().BoolVar(&costFree, "cost-free", false, "task bodies take no simulated time")
	return cmd
}
