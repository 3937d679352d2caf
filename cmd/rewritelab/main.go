// Dependency injection composition root.
package main

import (
	"fmt"
	"os"
	"time"

	"rewritelab/config"
	"rewritelab/htaccess/engine"
	"rewritelab/htaccess/ruleevaluation"
	"rewritelab/htaccess/ruleparsing"
	"rewritelab/logging"
	"rewritelab/regexp2engine"
	"rewritelab/rewrite"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "rewritelab",
	Short: "rewritelab evaluates Apache mod_rewrite directives against a URL without serving traffic",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rewritelab version %s\n", version)
	},
}

func newLogger(logLevel string) zerolog.Logger {
	loglevel, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		loglevel = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(loglevel).With().Timestamp().Logger()
}

func newRewriteServer(logger zerolog.Logger, cfg *config.Main) (rewrite.Server, error) {
	rf, err := regexp2engine.NewRegexEngineFactory(cfg.Limits.MaxRegexSubjectLength, cfg.RegexCacheSize)
	if err != nil {
		return nil, fmt.Errorf("error while creating the regex engine factory: %w", err)
	}

	ef := engine.NewEngineFactory(ruleparsing.NewRuleParser(), ruleevaluation.NewRuleEvaluator(rf))
	e, err := ef.NewEngine(cfg.Limits)
	if err != nil {
		return nil, fmt.Errorf("error while creating the engine: %w", err)
	}

	var resultsLogger rewrite.ResultsLogger
	if cfg.LogFile {
		resultsLogger, err = logging.NewFileResultsLogger(&logging.LogFileSystemImpl{}, logger)
		if err != nil {
			return nil, fmt.Errorf("error while creating the file results logger: %w", err)
		}
	} else {
		resultsLogger = logging.NewZerologResultsLogger(logger)
	}

	return rewrite.NewServer(logger, e, cfg.Limits, resultsLogger), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
