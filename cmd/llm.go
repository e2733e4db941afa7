package cmd

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/ladder/internal/llm"
	"github.com/abhisek/ladder/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Audit the lesson assistant's model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the most recent model calls",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		st, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		// A purpose filter is applied here, so the limit waits until after it.
		opts := store.QueryOpts{Limit: limit}
		if purpose != "" {
			opts.Limit = 0
		}
		events, err := st.EventRepo().QueryLLMEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("read model calls: %w", err)
		}
		if purpose != "" {
			events = slices.DeleteFunc(events, func(e store.LLMRequestEventRecord) bool { return e.Purpose != purpose })
			if limit > 0 && len(events) > limit {
				events = events[:limit]
			}
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "The assistant has not been called yet.")
			return nil
		}
		t := newTable(out, "ID", "WHEN", "PURPOSE", "MODEL", "IN", "OUT", "MS", "")
		for _, e := range events {
			mark := "ok"
			if !e.Success {
				mark = "failed"
			}
			t.row(e.ID, e.Timestamp.Local().Format(timeLayout), e.Purpose, clip(e.Model, 28),
				e.InputTokens, e.OutputTokens, e.LatencyMs, mark)
		}
		return t.flush()
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Print one model call with its request and response bodies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("%q is not a call ID", args[0])
		}

		st, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		e, err := st.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("read call %d: %w", id, err)
		}
		if e == nil {
			return fmt.Errorf("no model call with ID %d", id)
		}

		out := cmd.OutOrStdout()
		field(out, "Call", e.ID)
		field(out, "When", e.Timestamp.Local().Format(timeLayout))
		field(out, "Model", e.Provider+"/"+e.Model)
		field(out, "Purpose", e.Purpose)
		field(out, "Tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens))
		field(out, "Cost", formatCost(llm.EstimateCost(e.Model, e.InputTokens, e.OutputTokens)))
		field(out, "Latency", fmt.Sprintf("%dms", e.LatencyMs))
		if e.Success {
			field(out, "Result", "ok")
		} else {
			field(out, "Result", "failed: "+e.ErrorMessage)
		}
		printBody(out, "Request", e.RequestBody)
		printBody(out, "Response", e.ResponseBody)
		return nil
	},
}

func printBody(w io.Writer, title, body string) {
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintf(w, "\n── %s %s\n%s\n", title, strings.Repeat("─", max(56-len(title), 0)), body)
}

var llmUsageCmd = &cobra.Command{
	Use:     "usage",
	Aliases: []string{"stats"},
	Short:   "Total tokens and estimated spend by purpose and model",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openLedger(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, out := cmd.Context(), cmd.OutOrStdout()
		byPurpose, err := st.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("summarise usage: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Fprintln(out, "The assistant has not been called yet.")
			return nil
		}

		t := newTable(out, "PURPOSE", "CALLS", "FAILED", "IN", "OUT", "AVG MS")
		var sum store.LLMUsageStats
		for _, u := range byPurpose {
			t.row(u.Purpose, u.Requests, u.Failures, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
			sum.Requests += u.Requests
			sum.Failures += u.Failures
			sum.InputTokens += u.InputTokens
			sum.OutputTokens += u.OutputTokens
		}
		t.row("all", sum.Requests, sum.Failures, sum.InputTokens, sum.OutputTokens, "")
		if err := t.flush(); err != nil {
			return err
		}

		events, err := st.EventRepo().QueryLLMEvents(ctx, store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("read model calls: %w", err)
		}
		fmt.Fprintln(out)
		return printCostByModel(out, usageByModel(events))
	},
}

type modelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// usageByModel totals recorded calls per model, busiest first.
func usageByModel(events []store.LLMRequestEventRecord) []modelUsage {
	idx := map[string]int{}
	var out []modelUsage
	for _, e := range events {
		i, ok := idx[e.Model]
		if !ok {
			i = len(out)
			idx[e.Model] = i
			out = append(out, modelUsage{Model: e.Model})
		}
		out[i].Calls++
		out[i].InputTokens += e.InputTokens
		out[i].OutputTokens += e.OutputTokens
	}
	slices.SortFunc(out, func(a, b modelUsage) int {
		return cmp.Or(cmp.Compare(b.Calls, a.Calls), strings.Compare(a.Model, b.Model))
	})
	return out
}

// printCostByModel prices each model's tokens. Models without a known
// rate show "?" and make the total a lower bound.
func printCostByModel(w io.Writer, usage []modelUsage) error {
	t := newTable(w, "MODEL", "CALLS", "IN", "OUT", "EST. USD")
	var total float64
	var unpriced []string
	for _, u := range usage {
		cost := "?"
		if rate, ok := llm.LookupCost(u.Model); ok {
			c := rate.Cost(u.InputTokens, u.OutputTokens)
			total += c
			cost = formatCost(c)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		t.row(clip(u.Model, 32), u.Calls, u.InputTokens, u.OutputTokens, cost)
	}
	totalLabel := "all"
	if len(unpriced) > 0 {
		totalLabel = "all (at least)"
	}
	t.row(totalLabel, "", "", "", formatCost(total))
	if err := t.flush(); err != nil {
		return err
	}
	if len(unpriced) > 0 {
		fmt.Fprintf(w, "\nNo price list for %s.\n", strings.Join(unpriced, ", "))
	}
	return nil
}

// formatCost keeps sub-cent amounts readable.
func formatCost(usd float64) string {
	prec := 2
	if usd < 0.01 {
		prec = 4
	}
	return "$" + strconv.FormatFloat(usd, 'f', prec, 64)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "how many calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "only calls made for this purpose ("+llm.PurposeAsk+" or "+llm.PurposeExplain+")")
	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmUsageCmd)
}
