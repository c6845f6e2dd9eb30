package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ocs/pkg/feed"
	"ocs/pkg/protocol"
)

// logsConfig holds configuration for the logs command.
type logsConfig struct {
	mode   string
	topic  string
	asJSON bool
}

// newLogsCmd creates the "ocs logs" subcommand.
func newLogsCmd(a *app) *cobra.Command {
	var cfg logsConfig

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Tail the live log feed",
		Long:  "Connects to the backend's live log feed and prints entries until interrupted.\nWhen a goal starts, an ACTIVE GOAL line is printed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := a.cfg.Mode
			if cfg.mode != "" {
				m, err := protocol.ParseMode(cfg.mode)
				if err != nil {
					return err
				}
				mode = m
			}

			t, err := feed.NewTransport(mode, a.cfg.Endpoints(), a.cfg.FeedOptions(a.logger))
			if err != nil {
				return err
			}
			sub := feed.Subscribe(cmd.Context(), t, a.logger)
			defer sub.Close()

			return tailFeed(cmd.Context(), sub, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.mode, "mode", "", "transport: ws or sse (default from config)")
	cmd.Flags().StringVar(&cfg.topic, "topic", "", "only show entries whose topic starts with this prefix")
	cmd.Flags().BoolVar(&cfg.asJSON, "json", false, "print one JSON entry per line")
	return cmd
}

// tailFeed prints updates from sub until ctx is done or the feed ends.
// Entries go to w, connection status to status.
func tailFeed(ctx context.Context, sub *feed.Subscription, w, status io.Writer, cfg logsConfig) error {
	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			return nil

		case u, ok := <-sub.Updates():
			if !ok {
				<-sub.Done()
				return sub.Err()
			}
			switch u.Kind {
			case feed.UpdateStatus:
				line := "feed " + u.Status.Label(u.Mode)
				if u.Err != nil {
					line += ": " + u.Err.Error()
				}
				fmt.Fprintln(status, line)

			case feed.UpdateEntry:
				if id, ok := feed.GoalID(u.Entry); ok && !cfg.asJSON {
					fmt.Fprintf(w, "ACTIVE GOAL %s\n", id)
				}
				if cfg.topic != "" && !strings.HasPrefix(u.Entry.Topic, cfg.topic) {
					continue
				}
				if cfg.asJSON {
					if err := enc.Encode(u.Entry); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintln(w, formatEntry(u.Entry))
			}
		}
	}
}

// formatEntry renders one entry on a single line.
func formatEntry(e protocol.LogEntry) string {
	clock := e.Timestamp
	if t, ok := e.Time(); ok {
		clock = t.Local().Format("15:04:05")
	}

	var b strings.Builder
	b.WriteString(clock)
	if e.Source != "" {
		b.WriteString(" [" + e.Source + "]")
	}
	b.WriteString(" " + e.Topic)
	if len(e.Payload) > 0 && string(e.Payload) != "null" {
		var compact bytes.Buffer
		if err := json.Compact(&compact, e.Payload); err == nil {
			b.WriteString(" " + compact.String())
		} else {
			b.WriteString(" " + string(e.Payload))
		}
	}
	return b.String()
}
