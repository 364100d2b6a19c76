package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/fuzzymatch/internal/output"
)

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove every persisted field index",
		Long: `Remove the encrypted index of every configured field.

Every field is attempted even when one fails; all failures are reported.
The configuration and the storage key check are kept, so 'create' can
rebuild with the same key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDelete(cmd, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

func runDelete(cmd *cobra.Command, yes bool) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if !yes {
		out.Warningf("This deletes the indices of %d fields in %s", len(cfg.Fields), cfg.Storage.Path)
		_, _ = fmt.Fprint(cmd.OutOrStdout(), "Continue? [y/N] ")
		var answer string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			out.Status("", "Aborted")
			return nil
		}
	}

	set, err := openMatchingSet(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = set.Close() }()

	if err := set.Delete(ctx); err != nil {
		return err
	}
	out.Successf("Deleted %d field indices", len(set.Fields()))
	return nil
}
