//
// Synthetic Agora is pleased to support the open source community by making agora available.
//
// Copyright (C) 2026 Synthetic Agora.  All rights reserved.
//
// agora is licensed under the Apache License Version 2.0.
//
//

// Command agora runs the tool execution engine as an HTTP service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/synthetic-agora/agora/config"
	"github.com/synthetic-agora/agora/log"
	"github.com/synthetic-agora/agora/platform"
	"github.com/synthetic-agora/agora/runtime"
	"github.com/synthetic-agora/agora/server"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "agora",
		Short: "Tool execution engine for simulated social agents",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	root.AddCommand(serveCmd(), toolsCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when given, defaults otherwise.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log.SetLevel(cfg.Log.Level)

			db, err := platform.Open(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.AutoMigrate(); err != nil {
				return err
			}

			executor := runtime.New(db)
			srv := server.New(executor, server.Options{
				Addr:           cfg.Server.Addr,
				AllowedOrigins: cfg.Server.AllowedOrigins,
			})

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case sig := <-stop:
				log.Infof("received %s, shutting down", sig)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog schema as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			executor := runtime.New(nil)
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(executor.Tools())
		},
	}
}
