// Package integrationtesting runs the fully wired evaluator against a YAML
// scenario corpus and checks the quantified evaluation invariants.
package integrationtesting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Scenario is one end-to-end evaluation case loaded from the corpus.
type Scenario struct {
	Title           string            `yaml:"title"`
	URL             string            `yaml:"url"`
	ServerVariables map[string]string `yaml:"serverVariables"`
	Rules           string            `yaml:"rules"`
	Expect          Expectation       `yaml:"expect"`
}

// Expectation is the asserted outcome of a scenario. TraceLength is asserted
// when non-zero; Trace rows assert only the fields each row names.
type Expectation struct {
	FinalURL    string     `yaml:"finalUrl"`
	Status      string     `yaml:"status"`
	StatusCode  *int       `yaml:"statusCode"`
	TraceLength int        `yaml:"traceLength"`
	Trace       []TraceRow `yaml:"trace"`
}

// TraceRow asserts one trace entry, addressed by line number.
type TraceRow struct {
	LineNo          int    `yaml:"lineNo"`
	Valid           *bool  `yaml:"valid"`
	Reached         *bool  `yaml:"reached"`
	Met             *bool  `yaml:"met"`
	MessageContains string `yaml:"messageContains"`
}

type scenarioFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// GetScenarios returns the parsed scenarios from all YAML files under the
// given directory, in file name order.
func GetScenarios(testRootDir string) (scenarios []Scenario, err error) {
	var files []string
	err = filepath.Walk(testRootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".yaml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return
	}

	if len(files) == 0 {
		err = fmt.Errorf("no scenario files found under the %v folder", testRootDir)
		return
	}

	sort.Strings(files)

	for _, file := range files {
		var bb []byte
		bb, err = os.ReadFile(file)
		if err != nil {
			return
		}

		var f scenarioFile
		if err = yaml.Unmarshal(bb, &f); err != nil {
			err = fmt.Errorf("error while parsing scenario file %v: %w", file, err)
			return
		}

		scenarios = append(scenarios, f.Scenarios...)
	}

	return
}
