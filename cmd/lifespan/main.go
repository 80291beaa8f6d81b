// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "lifespan",
		Short: "Fuzzy shelf-life quality engine for stored food",
		Long: `lifespan scores the quality of stored food from temperature, humidity,
food type and days on shelf with a Mamdani fuzzy inference system.`,
		SilenceUsage: true,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the assessment page",
		RunE:  runServe,
	}
	assessCmd = &cobra.Command{
		Use:   "assess",
		Short: "Assess one sample (prompts for missing values when flags are omitted)",
		RunE:  runAssess,
	}
	surfaceCmd = &cobra.Command{
		Use:   "surface",
		Short: "Sweep the output over two input axes",
		RunE:  runSurface,
	}
	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Random-sample the input space and report score distribution and rule coverage gaps",
		RunE:  runAudit,
	}
	systemsCmd = &cobra.Command{
		Use:   "systems",
		Short: "List registered inference systems",
		RunE:  runSystems,
	}
	termsCmd = &cobra.Command{
		Use:   "terms",
		Short: "Show variables and their membership functions",
		RunE:  runTerms,
	}
	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "Show the rule table",
		RunE:  runRules,
	}
)

// global flags
var (
	configDirs []string
	systemID   uint
	logMode    string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringSliceVar(&configDirs, "config-dir", nil, "extra directories with system YAML files")
	pf.UintVar(&systemID, "system", 1, "system id")
	pf.StringVar(&logMode, "log-mode", "dev", "log mode: dev|prod|silence")

	rootCmd.AddCommand(serveCmd, assessCmd, surfaceCmd, auditCmd, systemsCmd, termsCmd, rulesCmd)
	bindServe(serveCmd)
	bindAssess(assessCmd)
	bindSurface(surfaceCmd)
	bindAudit(auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render(err.Error()))
		os.Exit(1)
	}
}
