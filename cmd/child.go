package cmd

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/framebus/framebus/pkg/bus"
	"github.com/framebus/framebus/pkg/transport"
	"github.com/framebus/framebus/pkg/types"
)

var (
	hostURL        string
	childOrigin    string
	subscribeTypes []string
)

// childCmd runs the child role: dial the host, announce readiness, and
// dispatch broadcast actions to subscribers
var childCmd = &cobra.Command{
	Use:   "child",
	Short: "Run a child bus connected to a host",
	RunE:  runChild,
}

func runChild(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	if hostURL != "" {
		cfg.Child.HostURL = hostURL
	}
	if childOrigin != "" {
		cfg.Child.Origin = childOrigin
	}
	if err := cfg.Child.Validate(); err != nil {
		return err
	}

	wsCfg := transport.WebsocketConfig{
		ReadLimit:    cfg.Transport.ReadLimit,
		WriteTimeout: cfg.Transport.WriteTimeout,
		PingInterval: cfg.Transport.PingInterval,
		SendBuffer:   cfg.Transport.SendBuffer,
	}

	client, err := transport.DialHost(cmd.Context(), cfg.Child.HostURL, cfg.Child.Origin, wsCfg, rootLog)
	if err != nil {
		return err
	}
	defer client.Close()

	childBus, err := bus.NewChild(client, client.Host(), client.HostOrigin(), rootLog)
	if err != nil {
		return err
	}
	defer childBus.Close()

	for _, actionType := range subscribeTypes {
		at := types.ActionType(actionType)
		cancel, err := childBus.Subscribe(at, func(action types.Action) {
			rootLog.Info("Action received",
				"action_type", action.Type,
				"payload", string(action.Payload))
		})
		if err != nil {
			return err
		}
		defer cancel()
	}

	if err := childBus.RegisterMeInHost(cmd.Context()); err != nil {
		return err
	}
	rootLog.Info("Announced readiness to host",
		"host_url", cfg.Child.HostURL,
		"origin", cfg.Child.Origin)

	payload, _ := json.Marshal(map[string]string{"origin": cfg.Child.Origin})
	if err := childBus.SendToHost(cmd.Context(), types.NewActionWithPayload("HELLO", payload)); err != nil {
		rootLog.Warn("Greeting not delivered", "error", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	rootLog.Info("Shutting down child")
	return nil
}

func init() {
	childCmd.Flags().StringVar(&hostURL, "host-url", "",
		"Websocket URL of the host endpoint, e.g. ws://127.0.0.1:8790/bus (default: from config or env)")
	childCmd.Flags().StringVar(&childOrigin, "origin", "",
		"Origin to declare in the handshake (default: from config or env)")
	childCmd.Flags().StringSliceVar(&subscribeTypes, "subscribe", []string{"HEARTBEAT"},
		"Action type to subscribe to; repeatable")

	rootCmd.AddCommand(childCmd)
}
