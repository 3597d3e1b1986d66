package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/facetree/model"
)

func newInvalidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop cached term results of a datatype from the blob store tier",
		Long: "Drop cached term results that read a field of a datatype. Only a persistent " +
			"blob store backend keeps entries between runs; field 0 drops every field.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cfg, repo, err := loadInputs(cmd)
			if err != nil {
				return err
			}
			dt, _ := cmd.Flags().GetUint32("datatype")
			field, _ := cmd.Flags().GetUint32("field")

			eng, err := openEngine(ctx, cfg, repo, cfg.Log.Logger(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			n, err := eng.Invalidate(ctx, model.DatatypeID(dt), model.FieldID(field))
			if err != nil {
				return err
			}
			p := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
			if p.format == "json" {
				return p.json(map[string]int{"removed": n})
			}
			_, err = fmt.Fprintf(p.w, "removed %d cached entries\n", n)
			return err
		},
	}
	cmd.Flags().Uint32("datatype", 0, "datatype id")
	cmd.Flags().Uint32("field", 0, "field id, 0 for every field")
	_ = cmd.MarkFlagRequired("datatype")
	return cmd
}
