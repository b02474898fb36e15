package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/capwire/capwire/pkg/channel"
	"github.com/capwire/capwire/pkg/socket"
	"github.com/spf13/cobra"
)

var relayListen string

// relayCmd bridges pairs of TCP connections: the first and second accepted
// connections become a pair, the third and fourth the next pair, and so on.
// Frames flow between the two ends of each pair until either side closes.
var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Bridge pairs of TCP connections through socket frames",
	RunE:  runRelay,
}

func runRelay(cmd *cobra.Command, args []string) error {
	if err := initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if relayListen != "" {
		cfg.Relay.ListenAddr = relayListen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.Relay.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Relay.ListenAddr, err)
	}
	rootLog.Info("Relay listening", "addr", cfg.Relay.ListenAddr)

	go acceptLoop(ctx, listener, cfg.Relay.MaxConnections)

	<-ctx.Done()
	listener.Close()
	rootLog.Info("Relay shutting down")
	return nil
}

// relayEnd is one bridged connection waiting for, or wired to, a partner
type relayEnd struct {
	sock *socket.Socket
	sub  *channel.Subscription
}

// acceptLoop pairs up incoming connections
func acceptLoop(ctx context.Context, listener net.Listener, maxConns int) {
	var active atomic.Int64
	var pending *relayEnd

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			rootLog.Error("Failed to accept connection", "error", err)
			continue
		}

		if maxConns > 0 && active.Load() >= int64(maxConns) {
			rootLog.Warn("Connection limit reached, rejecting connection",
				"remote_addr", conn.RemoteAddr().String(),
				"max_connections", maxConns)
			conn.Close()
			continue
		}

		sock := socket.BridgeConn(conn, rootLog)
		// Subscribing now keeps frames arriving before a partner shows up.
		end := &relayEnd{sock: sock, sub: sock.Subscribe()}
		active.Add(1)
		rootLog.Debug("Connection bridged", "remote_addr", conn.RemoteAddr().String())

		if pending == nil {
			pending = end
			continue
		}

		first, second := pending, end
		pending = nil
		go pump(ctx, first, second, &active)
		go pump(ctx, second, first, &active)
		rootLog.Info("Relay pair established")
	}
}

// pump forwards frames from one end of a pair to the other until the source
// ends, then tears the partner down too.
func pump(ctx context.Context, from, to *relayEnd, active *atomic.Int64) {
	defer active.Add(-1)
	defer to.sock.Disconnect()

	for {
		frame, err := from.sub.Next(ctx)
		if err != nil {
			return
		}
		if err := to.sock.Send(frame.Values()...); err != nil {
			return
		}
	}
}

func init() {
	relayCmd.Flags().StringVar(&relayListen, "listen", "",
		"Listen address (default: from config or env)")
	rootCmd.AddCommand(relayCmd)
}
