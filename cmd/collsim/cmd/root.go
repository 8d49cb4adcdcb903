package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	flagRanks    int
	flagDebug    bool
	flagMetrics  string
	flagInterval string
)

var rootCmd = &cobra.Command{
	Use:   "collsim",
	Short: "Drive collective operations over an in-process simulated network",
	Long: `collsim exercises the barrier, all-reduce, all-gather, scatter,
broadcast and group-join collectives over an in-process simulated network,
for demonstration and manual verification without a real transport.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./collsim.yaml)")
	rootCmd.PersistentFlags().IntVar(&flagRanks, "ranks", 4, "number of simulated ranks")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable work-queue debug trace")
	rootCmd.PersistentFlags().StringVar(&flagMetrics, "metrics", "none", "metrics provider: none, basic, stdout")
	rootCmd.PersistentFlags().StringVar(&flagInterval, "metrics-interval", "5s", "stdout metrics export interval")

	_ = viper.BindPFlag("ranks", rootCmd.PersistentFlags().Lookup("ranks"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("metrics", rootCmd.PersistentFlags().Lookup("metrics"))
	_ = viper.BindPFlag("metrics_interval", rootCmd.PersistentFlags().Lookup("metrics-interval"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("collsim")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.AutomaticEnv()
	// Config file is optional: collsim runs entirely off flags/defaults when
	// none is found.
	_ = viper.ReadInConfig()
}
