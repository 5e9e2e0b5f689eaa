package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"offercube/evaluator"
	"offercube/node"
	"offercube/offer"
	"offercube/scheduler"
	"offercube/task"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a task against offers",
	Long: `offercube evaluate command.

The evaluate command runs a task file against the offers in an offers file,
prints the outcome tree of every offer and the offer the picker would
choose. Nothing is launched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}
		taskFile, _ := cmd.Flags().GetString("task")
		offersFile, _ := cmd.Flags().GetString("offers")
		local, _ := cmd.Flags().GetBool("local")
		asJSON, _ := cmd.Flags().GetBool("json")
		if picker, _ := cmd.Flags().GetString("picker"); picker != "" {
			conf.Scheduler.Picker = picker
		}

		t, err := task.Load(taskFile)
		if err != nil {
			return err
		}

		var offers []*offer.Offer
		if offersFile != "" {
			if offers, err = offer.Load(offersFile); err != nil {
				return err
			}
		}
		if local {
			o, err := node.LocalOffer(t.Role)
			if err != nil {
				return err
			}
			offers = append(offers, o)
		}

		picker, err := scheduler.NewPicker(conf.Scheduler.Picker)
		if err != nil {
			return err
		}

		results, err := evaluator.New(conf.Evaluator).Evaluate(context.Background(), t, offers)
		if err != nil {
			return err
		}
		chosen := scheduler.Select(picker, t, evaluator.Offers(evaluator.Passing(results)))

		if asJSON {
			return printJSON(cmd.OutOrStdout(), results, chosen)
		}
		printResults(cmd.OutOrStdout(), results, chosen)
		return nil
	},
}

func printResults(w io.Writer, results []evaluator.Result, chosen *offer.Offer) {
	for _, r := range results {
		fmt.Fprintf(w, "offer %s (%s)\n", r.Offer.ID, r.Offer.Hostname)
		fmt.Fprintln(w, evaluator.Tree(r.Outcome))
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  -> %s\n", rec)
		}
		fmt.Fprintln(w)
	}
	if chosen == nil {
		fmt.Fprintf(w, "no offer matched (%d evaluated)\n", len(results))
		return
	}
	fmt.Fprintf(w, "chosen offer %s on %s\n", chosen.ID, chosen.Hostname)
}

type evaluation struct {
	OfferID         string            `json:"offer_id"`
	Hostname        string            `json:"hostname"`
	Chosen          bool              `json:"chosen"`
	Recommendations []string          `json:"recommendations"`
	Report          *evaluator.Report `json:"report"`
}

func printJSON(w io.Writer, results []evaluator.Result, chosen *offer.Offer) error {
	out := make([]evaluation, 0, len(results))
	for _, r := range results {
		out = append(out, evaluation{
			OfferID:         r.Offer.ID.String(),
			Hostname:        r.Offer.Hostname,
			Chosen:          chosen != nil && chosen.ID == r.Offer.ID,
			Recommendations: offer.Strings(r.Recommendations),
			Report:          evaluator.NewReport(r.Outcome),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringP("task", "t", "task.yaml", "Task specification file")
	evaluateCmd.Flags().StringP("offers", "o", "", "Offers file")
	evaluateCmd.Flags().Bool("local", false, "Also evaluate an offer describing this host")
	evaluateCmd.Flags().String("picker", "", "Picker to choose among passing offers, overrides scheduler.picker")
	evaluateCmd.Flags().Bool("json", false, "Print JSON reports")
}
