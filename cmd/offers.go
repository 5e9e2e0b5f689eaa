package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"offercube/node"
	"offercube/offer"
)

// offersCmd represents the offers command
var offersCmd = &cobra.Command{
	Use:   "offers",
	Short: "Inspect offers",
}

var offersLocalCmd = &cobra.Command{
	Use:   "local",
	Short: "Print an offer describing this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		o, err := node.LocalOffer(role)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	},
}

func init() {
	rootCmd.AddCommand(offersCmd)
	offersCmd.AddCommand(offersLocalCmd)

	offersLocalCmd.Flags().StringP("role", "r", offer.AnyRole, "Role the resources are reserved for")
}
