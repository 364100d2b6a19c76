package cmd

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fuzzymatch/internal/store"
	"github.com/Aman-CERP/fuzzymatch/internal/ui"
)

func newInfoCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the built field indices",
		Long: `Show which configured fields have a built index, with record counts,
sizes and build times. No encryption key is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInfo(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runInfo(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var fields []ui.FieldStatus
	if _, err := os.Stat(filepath.Join(cfg.Storage.Path, store.CatalogFile)); err == nil {
		catalog, err := store.OpenCatalog(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer func() { _ = catalog.Close() }()

		infos, err := catalog.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, i := range infos {
			fields = append(fields, ui.FieldStatus{
				Field:     i.Field,
				Algorithm: i.Algorithm,
				Weight:    i.Weight,
				Records:   i.Records,
				Indexed:   i.Indexed,
				Bytes:     i.Bytes,
				BuiltAt:   i.BuiltAt,
			})
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	info := ui.NewStatusInfo(cfg.Storage.Path, cfg.FieldNames(), fields)
	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()))
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}
