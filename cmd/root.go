package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"offercube/config"
	"offercube/logger"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "offercube",
	Short: "Match tasks against resource offers",
	Long: `offercube evaluates tasks against resource offers.

Every offer is run through a pipeline of evaluation stages. Each stage
records a pass or fail outcome with a reason, and passing stages recommend
the operations needed to accept the offer.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file")
}

// loadConfig reads the config file and applies the logger settings.
func loadConfig() (config.Config, error) {
	conf, err := config.Load(configFile)
	if err != nil {
		return conf, err
	}
	logger.Configure(conf.Logger)
	return conf, nil
}
