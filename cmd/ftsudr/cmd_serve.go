package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibsurgeon/fts-udr-go/internal/api"
	"github.com/ibsurgeon/fts-udr-go/internal/daemon"
)

var (
	serveHost string
	servePort int
)

// updateCmd runs one applier pass over the change log.
var updateCmd = &cobra.Command{
	Use:   "update-indexes",
	Short: "Apply pending change-log entries to every active index",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		result, err := service.UpdateIndexes(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d entries (%d dropped) across %d index(es)\n",
			result.EntriesApplied, result.EntriesDropped, result.IndexesTouched)
		return nil
	},
}

// serveCmd runs the REST bridge, with the optional maintenance loop.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST bridge over the routine surface",
	Long: `Run the REST bridge. With daemon.enabled in the configuration, a
maintenance loop also applies the change log on the configured interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		service, cfg, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()

		if serveHost != "" {
			cfg.RestAPI.Host = serveHost
		}
		if servePort != 0 {
			cfg.RestAPI.Port = servePort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Daemon.Enabled {
			go func() {
				err := daemon.RunMaintenanceLoop(ctx, cfg.Daemon.Interval, func(runCtx context.Context) error {
					_, err := service.UpdateIndexes(runCtx)
					return err
				})
				if err != nil && ctx.Err() == nil {
					fmt.Fprintln(os.Stderr, "maintenance loop exited:", err)
				}
			}()
		}

		server := api.NewServer(service, cfg)
		return server.StartWithContext(ctx, 10*time.Second)
	},
}

// daemonCmd manages the detached background process.
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the background maintenance daemon",
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Launch the daemon detached",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d := daemon.New(filepath.Dir(cfg.Catalog.Path), Version)
		if err := d.Daemonize([]string{"daemon", "run"}); err != nil {
			return err
		}
		fmt.Println("daemon launched")
		return nil
	},
}

var daemonRunCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run the daemon in the foreground (used by daemon start)",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		service, cfg, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()

		d := daemon.New(filepath.Dir(cfg.Catalog.Path), Version)
		if err := d.Start(&daemon.State{
			RESTEnabled: cfg.RestAPI.Enabled,
			RESTHost:    cfg.RestAPI.Host,
			RESTPort:    cfg.RestAPI.Port,
			Interval:    cfg.Daemon.Interval,
			CatalogPath: cfg.Catalog.Path,
		}); err != nil {
			return err
		}
		defer d.Cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.RestAPI.Enabled {
			go func() {
				server := api.NewServer(service, cfg)
				if err := server.StartWithContext(ctx, 10*time.Second); err != nil && ctx.Err() == nil {
					fmt.Fprintln(os.Stderr, "REST bridge exited:", err)
				}
			}()
		}

		err = daemon.RunMaintenanceLoop(ctx, cfg.Daemon.Interval, func(runCtx context.Context) error {
			_, err := service.UpdateIndexes(runCtx)
			return err
		})
		if err == context.Canceled {
			return nil
		}
		return err
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d := daemon.New(filepath.Dir(cfg.Catalog.Path), Version)
		return d.Stop()
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d := daemon.New(filepath.Dir(cfg.Catalog.Path), Version)
		status := d.Status()
		if !status.Running {
			fmt.Println("daemon: not running")
			return nil
		}
		fmt.Printf("daemon: running (pid %d, up %s, version %s)\n",
			status.PID, status.Uptime.Round(time.Second), status.Version)
		if status.RESTEnabled {
			fmt.Printf("rest:   %s:%d\n", status.RESTHost, status.RESTPort)
		}
		fmt.Printf("apply:  every %s\n", status.Interval)
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "bind host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "bind port (overrides config)")

	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonRunCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}
