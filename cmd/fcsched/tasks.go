package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fcsched/internal/fctasks"
)

func newTasksCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Print the task table as configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flagConfig, true)
			if err != nil {
				return err
			}
			ts, err := cfg.TaskSettings()
			if err != nil {
				return err
			}
			infos := fctasks.Describe(ts)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			fmt.Printf("%-3s  %-14s  %-9s  %-10s  %-8s  %s\n", "ID", "NAME", "PRIORITY", "PERIOD", "COMPILED", "ENABLED")
			fmt.Printf("%-3s  %-14s  %-9s  %-10s  %-8s  %s\n", "--", "----", "--------", "------", "--------", "-------")
			for _, t := range infos {
				fmt.Printf("%-3d  %-14s  %-9s  %-10s  %-8t  %t\n", t.ID, t.Name, t.Priority, t.Period, t.Compiled, t.Enabled)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
