package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"alfredoptarigan/resume-screener/internal/config"
)

const app = "screener"

var (
	// Used for flags.
	cfgFile string

	// appConfig is the environment configuration shared with the API server.
	appConfig *config.Config

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "screener scores resumes against job descriptions",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	appConfig = config.Load()
	setDefaults(appConfig)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The config file is optional unless it was asked for explicitly.
		if cfgFile != "" || !errors.As(err, &notFound) {
			cobra.CheckErr(fmt.Errorf("reading config: %w", err))
		}
	}
}

// setDefaults lets environment configuration fill in flags that were not given.
func setDefaults(cfg *config.Config) {
	viper.SetDefault("hard-weight", cfg.Scoring.HardWeight)
	viper.SetDefault("semantic-weight", cfg.Scoring.SemanticWeight)
	viper.SetDefault("model", cfg.Gemini.EmbeddingModel)
	viper.SetDefault("out-dir", cfg.Storage.OutputDir)
	viper.SetDefault("concurrency", cfg.Scoring.PairConcurrency)
}
