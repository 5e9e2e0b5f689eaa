package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"offercube/api"
	"offercube/util"
)

// stopCmd represents the stop command
var stopCmd = &cobra.Command{
	Use:   "stop <task id>",
	Short: "Stop a launched task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		server, _ := cmd.Flags().GetString("server")

		url := fmt.Sprintf("http://%s/tasks/%s", server, args[0])
		resp, err := util.HTTPWithRetry(cmd.Context(), util.NewRetrier(), func() (*http.Response, error) {
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodDelete, url, nil)
			if err != nil {
				return nil, err
			}
			return http.DefaultClient.Do(req)
		})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent {
			e := api.ErrResponse{}
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
				return fmt.Errorf("unexpected response status %d", resp.StatusCode)
			}
			return fmt.Errorf("response error (%d): %s", e.HTTPStatusCode, e.Message)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "task %s stopped\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)

	stopCmd.Flags().StringP("server", "s", "localhost:5555", "Server to talk to")
}
