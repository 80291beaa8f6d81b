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
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/lifespan/dto"
	"github.com/zintix-labs/lifespan/spec"
	"github.com/zintix-labs/lifespan/stats"
)

func runSystems(cmd *cobra.Command, args []string) error {
	lab, err := newLab()
	if err != nil {
		return err
	}
	sum, err := lab.Summary()
	if err != nil {
		return err
	}
	keys := make([]string, len(sum))
	msg := make(map[string]string, len(sum))
	for i, s := range sum {
		k := fmt.Sprintf("%d %s", s.SID, s.Name)
		keys[i] = k
		msg[k] = fmt.Sprintf("%s -> %s, %d rules, %s", strings.Join(s.Inputs, ","), strings.Join(s.Outputs, ","), s.Rules, s.Defuzz)
	}
	fmt.Fprint(cmd.OutOrStdout(), stats.Table("Systems", keys, msg))
	return nil
}

func runTerms(cmd *cobra.Command, args []string) error {
	rt, sys, name, err := newSystem()
	if err != nil {
		return err
	}
	defer rt.Close()
	vs, err := dto.NewVariables(spec.SID(systemID), sys.Engine(), false)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, styles.Title.Render(name))
	for _, group := range []struct {
		role string
		vars []dto.VariableDTO
	}{{"input", vs.Inputs}, {"output", vs.Outputs}} {
		for _, v := range group.vars {
			keys := make([]string, len(v.Terms))
			msg := make(map[string]string, len(v.Terms))
			for i, t := range v.Terms {
				keys[i] = t.Name
				msg[t.Name] = t.MF
			}
			title := fmt.Sprintf("%s %s [%g, %g] step %g", group.role, v.Name, v.Min, v.Max, v.Step)
			if v.Unit != "" {
				title += " " + v.Unit
			}
			fmt.Fprint(w, stats.Table(title, keys, msg))
		}
	}
	return nil
}

func runRules(cmd *cobra.Command, args []string) error {
	rt, sys, name, err := newSystem()
	if err != nil {
		return err
	}
	defer rt.Close()
	rb := sys.Engine().RuleBase()
	keys := make([]string, rb.Len())
	msg := make(map[string]string, rb.Len())
	for i := range rb.Len() {
		k := "#" + strconv.Itoa(i)
		keys[i] = k
		msg[k] = rb.Describe(i)
	}
	fmt.Fprint(cmd.OutOrStdout(), stats.Table(name+" rules", keys, msg))
	return nil
}
