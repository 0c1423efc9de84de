package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/playmatatu/pocketpool/internal/physics"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List the level table",
	RunE:  runLevels,
}

func runLevels(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Score: start %d, win at %d, lose at %d\n\n",
		settings.StartingScore, settings.WinScore, settings.LoseScore)
	fmt.Fprintf(out, "  %-3s %-12s %-10s %s\n", "ID", "Name", "Scene", "Table")
	fmt.Fprintf(out, "  %-3s %-12s %-10s %s\n", "--", "----", "-----", "-----")
	for _, l := range settings.Levels {
		table := "none"
		if l.Table != nil {
			spec := physics.NewTable(*l.Table).Spec
			table = fmt.Sprintf("%s (%s pockets, scale %.2f)", spec.Name, spec.Pockets, spec.Scale)
		}
		marker := " "
		if l.ID == settings.StartLevel {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-3d %-12s %-10s %s\n", marker, l.ID, l.Name, l.Scene, table)
	}
	return nil
}

