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

// ops 是開發用的任務腳本：go run scripts/ops.go [task]
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2E7D32"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("#F4D03F"))
)

type task struct {
	desc string
	args []string
	// filter 為 true 時只印 ok / FAIL 與編譯錯誤
	filter bool
	// hide 過濾掉含有這些字串的行
	hide []string
}

var tasks = map[string]task{
	"test":        {desc: "run all tests, summary only", args: []string{"test", "./...", "-cover", "-count=1"}, filter: true},
	"test-detail": {desc: "run all tests verbosely", args: []string{"test", "./...", "-v", "-count=1"}, hide: []string{"[no test files]"}},
	"bench":       {desc: "run benchmarks", args: []string{"test", "./...", "-run", "^$", "-bench", ".", "-benchmem"}},
	"audit":       {desc: "audit the food quality rule table (1e6 samples, fixed seed)", args: []string{"run", "./cmd/lifespan", "audit", "--seed", "1", "--log-mode", "silence"}},
	"profile":     {desc: "cpu profile a 100x100 surface sweep", args: []string{"run", "./cmd/lifespan", "surface", "-q", "-p", "cpu", "--log-mode", "silence"}},
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	t, ok := tasks[os.Args[1]]
	if !ok {
		fmt.Println(yellow.Render("unknown task: " + os.Args[1]))
		usage()
		os.Exit(1)
	}
	if err := run(os.Args[1], t); err != nil {
		fmt.Println(red.Render(err.Error()))
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: go run scripts/ops.go [task]")
	for _, name := range []string{"test", "test-detail", "bench", "audit", "profile"} {
		fmt.Printf("  %-12s %s\n", name, tasks[name].desc)
	}
}

func run(name string, t task) error {
	fmt.Println(green.Render("running " + name))
	if t.args[0] == "test" {
		if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
			fmt.Println(red.Render("go clean -testcache failed: " + err.Error()))
		}
	}

	cmd := exec.Command("go", t.args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start go %s: %w", t.args[0], err)
	}

	sc := bufio.NewScanner(out)
	for sc.Scan() {
		line := sc.Text()
		if hidden(line, t.hide) {
			continue
		}
		switch {
		case strings.HasPrefix(line, "ok"):
			fmt.Println(green.Render(line))
		case strings.HasPrefix(line, "FAIL"):
			fmt.Println(red.Render(line))
		case strings.Contains(line, "build failed") || strings.Contains(line, "setup failed"):
			fmt.Println(red.Render(line))
		case !t.filter:
			fmt.Println(line)
		}
	}
	if err := sc.Err(); err != nil {
		fmt.Println(red.Render("scanner error: " + err.Error()))
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s finished with errors", name)
	}
	return nil
}

func hidden(line string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}
