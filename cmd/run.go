package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"offercube/api"
	"offercube/logger"
	"offercube/task"
	"offercube/util"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit a new task",
	Long: `offercube run command.

The run command reads a task file and submits it to a running server,
which queues it for evaluation against the offers it holds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		server, _ := cmd.Flags().GetString("server")
		filename, _ := cmd.Flags().GetString("filename")
		log := logger.New("run", "server", server)

		fullFilePath, err := filepath.Abs(filename)
		if err != nil {
			return err
		}
		if !fileExists(fullFilePath) {
			return fmt.Errorf("file %s does not exist", fullFilePath)
		}
		log.Debug("using task file", "file", fullFilePath)

		spec, err := task.LoadSpec(fullFilePath)
		if err != nil {
			return err
		}
		data, err := json.Marshal(spec)
		if err != nil {
			return err
		}

		url := fmt.Sprintf("http://%s/tasks", server)
		retrier := util.NewRetrier()
		retrier.Notify = func(err error, d time.Duration) {
			log.Warn("retrying task submission", "error", err, "wait", d.String())
		}
		resp, err := util.HTTPWithRetry(cmd.Context(), retrier, func() (*http.Response, error) {
			return http.Post(url, "application/json", bytes.NewReader(data))
		})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		d := json.NewDecoder(resp.Body)
		if resp.StatusCode != http.StatusCreated {
			e := api.ErrResponse{}
			if err := d.Decode(&e); err != nil {
				return fmt.Errorf("unexpected response status %d", resp.StatusCode)
			}
			return fmt.Errorf("response error (%d): %s", e.HTTPStatusCode, e.Message)
		}

		t := task.Task{}
		if err := d.Decode(&t); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
		log.Info("task submitted", "task", t.Name, "id", t.ID.String())
		fmt.Fprintln(cmd.OutOrStdout(), t.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("server", "s", "localhost:5555", "Server to talk to")
	runCmd.Flags().StringP("filename", "f", "task.yaml", "Task specification file")
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)

	return !errors.Is(err, fs.ErrNotExist)
}
