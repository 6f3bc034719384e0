package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/smazurov/sdinode/pkg/vidc"
	"github.com/spf13/cobra"
)

// WriteFormats prints the format catalog as a table.
func WriteFormats(w io.Writer) error {
	t := newTable("ID", "FORMAT", "RATE", "SCAN", "H ACTIVE", "H TOTAL", "V ACTIVE", "LINES")
	for _, f := range vidc.Catalog() {
		tm, _ := vidc.TimingFor(f.ID)
		scan := "p"
		if f.Interlaced {
			scan = "i"
		}
		t.Row(
			fmt.Sprint(int(f.ID)),
			f.Name(),
			f.Rate.String(),
			scan,
			fmt.Sprint(tm.HActive),
			fmt.Sprint(tm.HTotal),
			fmt.Sprint(tm.VActive),
			fmt.Sprint(tm.LinesPerFrame()),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// CreateFormatsCmd creates the formats command.
func CreateFormatsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List the video formats the receiver can classify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !asJSON {
				return WriteFormats(cmd.OutOrStdout())
			}

			type entry struct {
				vidc.Format
				Name   string      `json:"name"`
				Timing vidc.Timing `json:"timing"`
			}
			out := make([]entry, 0, vidc.NumFormats)
			for _, f := range vidc.Catalog() {
				tm, _ := vidc.TimingFor(f.ID)
				out = append(out, entry{Format: f, Name: f.Name(), Timing: tm})
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}
