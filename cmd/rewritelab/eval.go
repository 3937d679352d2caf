package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"rewritelab/config"
	"rewritelab/rewrite"

	"github.com/spf13/cobra"
)

var (
	evalRulesPath string
	evalVars      []string
)

var evalCmd = &cobra.Command{
	Use:   "eval URL",
	Short: "Evaluate a rules file against a single URL and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().StringVarP(&evalRulesPath, "rules", "r", "", "path to the rewrite rules file")
	evalCmd.Flags().StringArrayVar(&evalVars, "var", nil, "server variable as NAME=VALUE, repeatable")
	evalCmd.MarkFlagRequired("rules")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	rules, err := os.ReadFile(evalRulesPath)
	if err != nil {
		return fmt.Errorf("error while reading the rules file: %w", err)
	}

	serverVariables, err := parseServerVariables(evalVars)
	if err != nil {
		return err
	}

	rs, err := newRewriteServer(logger, cfg)
	if err != nil {
		return err
	}

	output, err := rs.EvalRequest(rewrite.EvalInput{
		URL:             args[0],
		Rules:           string(rules),
		ServerVariables: serverVariables,
	})
	if err != nil {
		return err
	}

	bb, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(bb))
	return nil
}

func parseServerVariables(vars []string) (map[string]string, error) {
	if len(vars) == 0 {
		return nil, nil
	}

	m := make(map[string]string, len(vars))
	for _, v := range vars {
		name, value, found := strings.Cut(v, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid server variable %q, expected NAME=VALUE", v)
		}
		m[name] = value
	}
	return m, nil
}
