package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/capwire/capwire/pkg/socket"
	"github.com/spf13/cobra"
)

// demoCmd runs a connected socket pair in-process and prints the frames one
// side observes from the other.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a connected socket pair and print the exchanged frames",
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	if err := initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	a := socket.New(rootLog)
	b := socket.New(rootLog)

	sub := b.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Socket.ConnectTimeout)
	defer cancel()

	if err := a.Connect(ctx, b.ConnectCap()); err != nil {
		return err
	}
	rootLog.Info("Socket pair connected", "a", a.ID(), "b", b.ID())

	if err := a.Send("hello", 1); err != nil {
		return err
	}
	if err := a.Send("world", 2); err != nil {
		return err
	}
	a.Disconnect()

	for {
		frame, err := sub.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		fmt.Printf("b observed: %s\n", frame)
	}

	rootLog.Info("Demo complete", "a", a.Stats().String(), "b", b.Stats().String())
	return nil
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
