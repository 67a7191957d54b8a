// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// DevVault HTTP server binary.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flag"
	"github.com/devvault/trustlayer/config"
	"github.com/devvault/trustlayer/metrics"
	"github.com/devvault/trustlayer/server"
	glog "github.com/golang/glog"
)

var (
	configFile = flag.String("config-file", "", "Path to a DevVault YAML config file. Defaults to devvault.yaml in the user config directory.")
	port       = flag.Int("port", 0, "Service port. Overrides the config file when set.")
	noMetrics  = flag.Bool("no-metrics", false, "Disable Prometheus metrics.")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load(*configFile)
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *noMetrics {
		cfg.Server.Metrics = false
		metrics.Disable()
	}

	srv, err := server.New(cfg)
	if err != nil {
		glog.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	idleConnsClosed := make(chan struct{})
	go func() {
		defer close(idleConnsClosed)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			glog.Errorf("Failed to shut down cleanly: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil {
		glog.Fatalf("Server failed: %v", err)
	}
	<-idleConnsClosed
}
