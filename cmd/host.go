package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/framebus/framebus/pkg/bus"
	"github.com/framebus/framebus/pkg/transport"
	"github.com/framebus/framebus/pkg/types"
	"github.com/framebus/framebus/pkg/wire"
)

var (
	listenAddr        string
	allowedOrigins    []string
	broadcastInterval time.Duration
)

// hostCmd runs the host role: serve the websocket endpoint, register
// announcing children, and broadcast a heartbeat action
var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Run the host bus over a websocket endpoint",
	RunE:  runHost,
}

func runHost(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	if listenAddr != "" {
		cfg.Host.ListenAddr = listenAddr
	}
	if len(allowedOrigins) > 0 {
		cfg.Host.AllowedOrigins = allowedOrigins
	}
	if err := cfg.Host.Validate(); err != nil {
		return err
	}

	hostBus, err := bus.NewHost(cfg.Host.AllowedOrigins, rootLog)
	if err != nil {
		return err
	}

	wsCfg := transport.WebsocketConfig{
		ReadLimit:    cfg.Transport.ReadLimit,
		WriteTimeout: cfg.Transport.WriteTimeout,
		PingInterval: cfg.Transport.PingInterval,
		SendBuffer:   cfg.Transport.SendBuffer,
	}
	endpoint := transport.NewWebsocketServer(wsCfg, rootLog)
	defer endpoint.Close()

	// Application-side inbound handling: guard, decode, register on the
	// reserved ready type, log everything else.
	if err := endpoint.Attach(func(msg transport.Inbound) {
		if !hostBus.Allowed(msg.Origin) {
			rootLog.Warn("Dropped message from untrusted origin", "origin", msg.Origin)
			return
		}
		action, err := wire.Decode(msg.Data)
		if err != nil {
			rootLog.Error("Dropped undecodable message", "origin", msg.Origin, "error", err)
			return
		}
		if action.Type == types.ActionTypeReady {
			if err := hostBus.RegisterIframe(msg); err != nil {
				rootLog.Error("Registration failed", "origin", msg.Origin, "error", err)
			}
			return
		}
		rootLog.Info("Action from child",
			"action_type", action.Type,
			"origin", msg.Origin,
			"payload", string(action.Payload))
	}); err != nil {
		return err
	}
	defer endpoint.Detach()

	mux := http.NewServeMux()
	mux.Handle("/bus", endpoint)
	server := &http.Server{Addr: cfg.Host.ListenAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		rootLog.Info("Host bus listening",
			"addr", cfg.Host.ListenAddr,
			"allowed_origins", cfg.Host.AllowedOrigins)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if hostBus.Peers() == 0 {
				continue
			}
			if err := hostBus.SendToRemote(cmd.Context(), types.NewAction("HEARTBEAT")); err != nil {
				rootLog.Warn("Heartbeat broadcast incomplete", "error", err)
			}
		case err := <-errCh:
			return err
		case <-sigCh:
			rootLog.Info("Shutting down host")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		}
	}
}

func init() {
	hostCmd.Flags().StringVar(&listenAddr, "listen", "",
		"Address to serve the websocket endpoint on (default: from config or env)")
	hostCmd.Flags().StringSliceVar(&allowedOrigins, "allow-origin", nil,
		"Origin to accept children from; repeatable (default: from config or env)")
	hostCmd.Flags().DurationVar(&broadcastInterval, "broadcast-interval", 10*time.Second,
		"Interval between heartbeat broadcasts to registered children")

	rootCmd.AddCommand(hostCmd)
}
