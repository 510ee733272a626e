package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "inspect <export.json>",
		Short: "Print per-character stroke, point and timing statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}

	RootCmd.AddCommand(cmd)
}

// CharacterStats describes one exported character.
type CharacterStats struct {
	Index      int        `json:"characterIndex"`
	Strokes    int        `json:"strokes"`
	Points     int        `json:"points"`
	StartTime  float64    `json:"characterStartTime"`
	InkTime    float64    `json:"inkMs"`   // sum of stroke durations
	TotalTime  float64    `json:"totalMs"` // start to finalization, includes the inactivity timeout
	FirstPoint [2]float64 `json:"firstPoint"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	chars, err := loadCharacters(args[0])
	if err != nil {
		return err
	}

	stats := make([]CharacterStats, 0, len(chars))
	for _, c := range chars {
		st := CharacterStats{
			Index:     c.Index,
			Strokes:   len(c.Strokes),
			Points:    c.PointCount(),
			StartTime: c.StartTime,
			TotalTime: c.FinalizeTime - c.StartTime,
		}
		for _, s := range c.Strokes {
			st.InkTime += s.Duration()
		}
		if len(c.Strokes) > 0 && len(c.Strokes[0].Points) > 0 {
			p := c.Strokes[0].Points[0]
			st.FirstPoint = [2]float64{p.X, p.Y}
		}
		stats = append(stats, st)
	}

	out := cmd.OutOrStdout()
	if formatFlag == "json" {
		b, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Fprintln(out, string(b))
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAR\tSTROKES\tPOINTS\tINK_MS\tTOTAL_MS")
	for _, st := range stats {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.0f\t%.0f\n", st.Index, st.Strokes, st.Points, st.InkTime, st.TotalTime)
	}
	fmt.Fprintf(tw, "total\t%d characters\t\t\t\n", len(stats))
	return tw.Flush()
}
