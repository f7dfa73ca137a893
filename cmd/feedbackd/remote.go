package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/feedbackbank/internal/client"
	"github.com/mind-engage/feedbackbank/internal/settings"
)

var (
	apiURL    string
	passcode  string
	watchLock time.Duration
)

func newAPI() *client.API {
	base := apiURL
	if base == "" {
		base = cfg.APIBaseURL
	}
	return client.NewAPI(base)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the feedback tree from a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := client.NewSession(newAPI(), client.WithLogger(logger))
		defer s.Close()
		if err := s.Load(cmd.Context()); err != nil {
			return err
		}
		printTree(cmd.OutOrStdout(), s.Tree())
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Print modules, questions and snippets matching query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := client.NewSession(newAPI(), client.WithLogger(logger))
		defer s.Close()
		if err := s.Load(cmd.Context()); err != nil {
			return err
		}
		printTree(cmd.OutOrStdout(), s.Filter(strings.Join(args, " ")))
		return nil
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the site",
	RunE:  func(cmd *cobra.Command, args []string) error { return setLock(cmd, true) },
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the site",
	RunE:  func(cmd *cobra.Command, args []string) error { return setLock(cmd, false) },
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the site lock state; with --watch keep polling until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		api := newAPI()
		if watchLock <= 0 {
			l, err := api.GetLock(cmd.Context())
			if err != nil {
				return err
			}
			printLock(cmd.OutOrStdout(), l)
			return nil
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		err := client.WatchLock(ctx, api, watchLock, func(l settings.Lock, err error) {
			if err != nil {
				logger.Warn("site lock poll failed", zap.Error(err))
				return
			}
			printLock(cmd.OutOrStdout(), l)
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func setLock(cmd *cobra.Command, locked bool) error {
	api := newAPI()
	pass := passcode
	if pass == "" {
		pass = os.Getenv("EDITOR_PASSCODE")
	}
	if pass != "" {
		if err := api.Login(cmd.Context(), pass); err != nil {
			return err
		}
	}
	l, err := api.SetLock(cmd.Context(), locked)
	if err != nil {
		return err
	}
	printLock(cmd.OutOrStdout(), l)
	return nil
}

func printLock(w io.Writer, l settings.Lock) {
	state := "unlocked"
	if l.Locked {
		state = "locked"
	}
	if l.LockTimestamp != "" {
		fmt.Fprintf(w, "site %s (last locked at %s)\n", state, l.LockTimestamp)
		return
	}
	fmt.Fprintf(w, "site %s\n", state)
}

func printTree(w io.Writer, t client.Tree) {
	if len(t.Modules) == 0 {
		fmt.Fprintln(w, "(no modules)")
		return
	}
	for _, m := range t.Modules {
		fmt.Fprintf(w, "%d. %s  [%s]\n", m.Position, m.Title, m.ID)
		for _, e := range m.Elements {
			fmt.Fprintf(w, "   - %s\n", e.Content)
		}
		for _, q := range m.Questions {
			fmt.Fprintf(w, "   %d.%d %s\n", m.Position, q.Position, q.Title)
			for _, e := range q.Elements {
				fmt.Fprintf(w, "       - %s\n", e.Content)
			}
		}
	}
}

func init() {
	statusCmd.Flags().DurationVar(&watchLock, "watch", 0, "Poll interval, e.g. 10s (0 prints once)")
	for _, c := range []*cobra.Command{listCmd, searchCmd, lockCmd, unlockCmd, statusCmd} {
		c.Flags().StringVar(&apiURL, "api", "", "Server base URL (default API_BASE_URL)")
	}
	for _, c := range []*cobra.Command{lockCmd, unlockCmd} {
		c.Flags().StringVar(&passcode, "passcode", "", "Editor passcode (or EDITOR_PASSCODE)")
	}
}
