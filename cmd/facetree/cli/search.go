package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/facetree"
	"github.com/hupe1980/facetree/model"
)

func newSearchCmd(explain bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a search and print the matching top-level records",
	}
	if explain {
		cmd.Use = "explain"
		cmd.Short = "Run a search and print the state bits of every record in scope"
	}

	cmd.Flags().String("request", "", "request file (JSON)")
	cmd.Flags().String("query", "", "general search text, overrides the request file")
	cmd.Flags().Bool("complete", false, "also print the descendants of every match")
	_ = cmd.MarkFlagRequired("request")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		cfg, repo, err := loadInputs(cmd)
		if err != nil {
			return err
		}
		req, err := requestFromFlags(cmd)
		if err != nil {
			return err
		}

		eng, err := openEngine(ctx, cfg, repo, cfg.Log.Logger(), nil)
		if err != nil {
			return err
		}
		defer func() { _ = eng.Close() }()

		run := eng.Search
		if explain {
			run = eng.Explain
		}
		res, err := run(ctx, req)
		if err != nil {
			return err
		}
		return printResult(newPrinter(outputFormat(cmd), cmd.OutOrStdout()), res)
	}
	return cmd
}

func requestFromFlags(cmd *cobra.Command) (facetree.Request, error) {
	path, _ := cmd.Flags().GetString("request")
	rf, err := ReadRequest(path)
	if err != nil {
		return facetree.Request{}, err
	}
	if cmd.Flags().Changed("query") {
		rf.Query, _ = cmd.Flags().GetString("query")
	}
	if complete, _ := cmd.Flags().GetBool("complete"); complete {
		rf.Complete = true
	}
	return rf.Request()
}

func printResult(p *printer, res *facetree.Result) error {
	if p.format == "json" {
		return p.json(res)
	}

	pairs := [][2]string{
		{"request", res.RequestID},
		{"matches", joinIDs(res.TopLevel)},
	}
	if res.Complete != nil {
		pairs = append(pairs, [2]string{"complete", joinIDs(res.Complete)})
	}
	s := res.Stats
	pairs = append(pairs,
		[2]string{"datatypes", strconv.Itoa(s.Datatypes)},
		[2]string{"records", strconv.Itoa(s.Records)},
		[2]string{"terms", strconv.Itoa(s.Terms)},
		[2]string{"short circuits", strconv.Itoa(s.ShortCircuits)},
		[2]string{"multi-path merges", strconv.Itoa(s.MultiPathMerges)},
		[2]string{"guard promotions", strconv.Itoa(s.GuardPromotions)},
	)
	if s.Unsatisfiable {
		pairs = append(pairs, [2]string{"unsatisfiable", "true"})
	}
	p.kv(pairs)

	if res.States == nil {
		return nil
	}
	_, _ = fmt.Fprintln(p.w)
	ids := make([]model.RecordID, 0, len(res.States))
	for id := range res.States {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		b := res.States[id]
		rows = append(rows, []string{
			strconv.FormatUint(uint64(id), 10),
			fmt.Sprintf("%04b", b),
			describeState(model.StateFromBits(b)),
		})
	}
	p.table([]string{"RECORD", "BITS", "STATE"}, rows)
	return nil
}

func describeState(s model.State) string {
	var parts []string
	if s.Hidden {
		parts = append(parts, "hidden")
	}
	if s.MustMatch {
		parts = append(parts, "must-match")
	}
	if s.MatchedAdv {
		parts = append(parts, "advanced")
	}
	if s.MatchedGen {
		parts = append(parts, "general")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func joinIDs(ids []model.RecordID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, " ")
}
