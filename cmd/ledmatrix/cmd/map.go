package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/coreman2200/ledmatrix/internal/layout"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Print the strip index of every (x, y) cell",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		l, err := layout.New(cfg.Width, cfg.Height)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), renderMap(l))
		return err
	},
}

func init() {
	mapCmd.Flags().Int("width", 30, "LEDs per row")
	mapCmd.Flags().Int("height", 15, "rows")
	rootCmd.AddCommand(mapCmd)
}

// renderMap prints row 0 first, one right-aligned index per cell.
func renderMap(l layout.Layout) string {
	w := len(fmt.Sprint(l.Count() - 1))
	var sb strings.Builder
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%*d", w, l.Index(x, y))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
