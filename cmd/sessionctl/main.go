// Command sessionctl inspects and drives a client session profile stored in
// Redis, the same storage a running Synchronizer watches.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/quietsummit/travel-api/internal/authsync"
	redisdb "github.com/quietsummit/travel-api/internal/infrastructure/db/redis"
	"github.com/quietsummit/travel-api/internal/pkg/config"
	"github.com/quietsummit/travel-api/pkg/logger"
)

type rootFlags struct {
	redisAddr string
	redisDB   int
	profile   string
	apiURL    string
	interval  time.Duration
	logLevel  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "sessionctl",
		Short:         "Inspect and manage a Quiet Summit client session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger.Init(logger.Options{
				Level:   flags.logLevel,
				Pretty:  true,
				Service: "sessionctl",
				Output:  cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.redisAddr, "redis-addr", cfg.Redis.Addr, "Redis address backing the session store")
	pf.IntVar(&flags.redisDB, "redis-db", cfg.Redis.DB, "Redis database number")
	pf.StringVar(&flags.profile, "profile", cfg.Session.Profile, "Session profile name")
	pf.StringVar(&flags.apiURL, "api-url", cfg.Session.APIURL, "Base URL of the travel API")
	pf.DurationVar(&flags.interval, "interval", cfg.Session.Interval, "Re-validation interval for watch")
	pf.StringVar(&flags.logLevel, "log-level", cfg.LogLevel, "Log level: trace, debug, info, warn, error")

	root.AddCommand(
		newStatusCmd(flags),
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newWatchCmd(flags),
	)
	return root
}

// session bundles a synchronizer with the Redis client it owns.
type session struct {
	sync  *authsync.Synchronizer
	close func() error
}

func openSession(ctx context.Context, flags *rootFlags, opts ...authsync.Option) (*session, error) {
	log := logger.Get()

	client, err := redisdb.Connect(ctx, redisdb.Config{Addr: flags.redisAddr, DB: flags.redisDB})
	if err != nil {
		return nil, err
	}

	opts = append([]authsync.Option{
		authsync.WithInterval(flags.interval),
		authsync.WithLogger(log.With().Str("profile", flags.profile).Logger()),
	}, opts...)

	store := authsync.NewRedisStore(client, flags.profile)
	return &session{
		sync:  authsync.New(store, authsync.NewBus(), opts...),
		close: client.Close,
	}, nil
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Validate the stored session and print the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.sync.Synchronize(ctx); err != nil {
				return err
			}
			ok, user := s.sync.Current(ctx)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	}
}

func newLoginCmd(flags *rootFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in against the API and store the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := requestLogin(ctx, s.sync.NewClient(), flags.apiURL, email, password)
			if err != nil {
				return err
			}
			if err := s.sync.Login(ctx, rec); err != nil {
				return err
			}

			target, err := s.sync.ConsumeRedirect(ctx)
			if err != nil {
				return err
			}
			if target != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "continue at %s\n", target)
			}
			return printJSON(cmd.OutOrStdout(), rec.User())
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session and pending redirect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, flags)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.sync.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the session synchronized until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := logger.Component("watch")
			s, err := openSession(ctx, flags, authsync.WithAuthRequiredHandler(func(redirectURL string) {
				log.Info().Str("redirect", redirectURL).Msg("sign-in required")
			}))
			if err != nil {
				return err
			}
			defer s.close()

			go reportChanges(ctx, s.sync, flags.interval, log)
			return s.sync.Run(ctx)
		},
	}
}

// reportChanges logs whenever the signed-in identity changes.
func reportChanges(ctx context.Context, s *authsync.Synchronizer, every time.Duration, log zerolog.Logger) {
	poll := every / 10
	if poll < 100*time.Millisecond {
		poll = 100 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var last authsync.State
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur := s.State().Load()
			if cur == last {
				continue
			}
			last = cur
			if cur.IsAuthenticated {
				log.Info().Str("email", cur.Email).Str("role", cur.Role).Msg("signed in")
			} else {
				log.Info().Msg("signed out")
			}
		}
	}
}

type apiError struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

func requestLogin(ctx context.Context, client *http.Client, apiURL, email, password string) (authsync.Record, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return authsync.Record{}, err
	}

	url := strings.TrimRight(apiURL, "/") + "/api/auth/login"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return authsync.Record{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return authsync.Record{}, fmt.Errorf("login request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return authsync.Record{}, fmt.Errorf("read login response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return authsync.Record{}, fmt.Errorf("login failed (%d, request %s): %s", res.StatusCode, apiErr.RequestID, apiErr.Error)
		}
		return authsync.Record{}, fmt.Errorf("login failed: %s", res.Status)
	}

	var rec authsync.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return authsync.Record{}, fmt.Errorf("decode login response: %w", err)
	}
	if rec.Token == "" {
		return authsync.Record{}, errors.New("login response carried no token")
	}
	return rec, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
