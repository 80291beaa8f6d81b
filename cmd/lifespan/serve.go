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
	"net"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/lifespan/presets"
	"github.com/zintix-labs/lifespan/server"
	"github.com/zintix-labs/lifespan/server/logger"
	"github.com/zintix-labs/lifespan/server/netsvr"
	"github.com/zintix-labs/lifespan/server/svrcfg"
	"github.com/zintix-labs/lifespan/spec"
)

var serveOpts struct {
	addr    string
	rate    float64
	burst   int
	timeout time.Duration
	workers int
	open    bool
}

func bindServe(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&serveOpts.addr, "addr", netsvr.DefaultAddr, "listen address")
	f.Float64Var(&serveOpts.rate, "rate", 0, "global rate limit in requests per second (0 = unlimited)")
	f.IntVar(&serveOpts.burst, "burst", 0, "rate limiter burst (defaults to rate)")
	f.DurationVar(&serveOpts.timeout, "timeout", svrcfg.DefaultTimeout, "per-request inference deadline")
	f.IntVar(&serveOpts.workers, "workers", svrcfg.DefaultMaxWorkers, "max workers for surface and audit")
	f.BoolVar(&serveOpts.open, "open", false, "open the assessment page in a browser")
}

func runServe(cmd *cobra.Command, args []string) error {
	mode, err := logger.ParseLogMode(logMode)
	if err != nil {
		return err
	}
	log, _ := logger.NewAsync(4096, mode)
	lab, err := newLab()
	if err != nil {
		return err
	}
	sCfg := &svrcfg.SvrCfg{
		Log:        log,
		Lab:        lab,
		SystemID:   spec.SID(systemID),
		Addr:       serveOpts.addr,
		Timeout:    serveOpts.timeout,
		MaxWorkers: serveOpts.workers,
		RatePerSec: serveOpts.rate,
		Burst:      serveOpts.burst,
	}
	if sCfg.SystemID == presets.FoodQualityID {
		plan := presets.DefaultSurface()
		sCfg.Surface = &plan
	}
	if serveOpts.open {
		go openWhenReady(serveOpts.addr)
	}
	return server.Run(sCfg)
}

func openWhenReady(addr string) {
	if err := waitForTCP(addr, 5*time.Second); err != nil {
		fmt.Println(styles.Error.Render("server not ready: " + err.Error()))
		return
	}
	url := "http://" + dialAddr(addr) + "/"
	if err := openBrowser(url); err != nil {
		fmt.Println(styles.Error.Render("open browser failed: " + err.Error()))
	}
}

// dialAddr 把監聽位址轉成本機可連線的位址（空 host 或 0.0.0.0 改連 127.0.0.1）。
func dialAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func waitForTCP(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", dialAddr(addr), 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for %s", addr)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
