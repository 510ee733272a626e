// Package cli implements the strokerender commands for exported handwriting data.
package cli

import (
	"StrokeRecorder/internal/model"
	"StrokeRecorder/internal/service/sentence"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var formatFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "strokerender",
	Short:         "Render and inspect exported handwriting data",
	Long:          "Offline tools for handwriting-data-*.json exports: rebuild the thumbnail grid PNG or print per-character statistics.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

func loadCharacters(path string) ([]model.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	chars, err := sentence.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return chars, nil
}
