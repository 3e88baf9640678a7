package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"applicant-engine/internal/config"
	"applicant-engine/internal/httpapi"
	"applicant-engine/internal/scheduler"
)

// EnvShutdownToken pins the token POST /shutdown expects; otherwise a
// random one is written to the data dir.
const EnvShutdownToken = "APPLICANT_SHUTDOWN_TOKEN"

var (
	servePort    int
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local HTTP API and poll the mailbox in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(sigCtx)
		defer cancel()

		eng, err := newEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		token, err := shutdownToken(cfg)
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.App.Port
		}
		addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return eris.Wrapf(err, "listen %s", addr)
		}

		g, gctx := errgroup.WithContext(ctx)

		deps := httpapi.Deps{
			Hub:        eng.hub,
			Runner:     eng.runner,
			Parser:     eng.parser,
			Config:     func() config.Config { return cfg },
			RunContext: func() context.Context { return gctx },
		}
		if eng.db != nil {
			deps.DB = eng.db.Pool
		}

		mux := http.NewServeMux()
		mux.Handle("/", httpapi.Handler(deps))
		mux.Handle("/shutdown", shutdownHandler(token, cancel))

		srv := &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			zap.L().Info("engine listening", zap.String("addr", "http://"+addr), zap.String("data_dir", cfg.App.DataDir))
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "serve")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		if !serveNoWatch {
			g.Go(func() error {
				scheduler.Every(gctx, pollInterval(0), "mailbox", eng.runner.Task)
				return nil
			})
		}

		return g.Wait()
	},
}

// shutdownToken returns $APPLICANT_SHUTDOWN_TOKEN or a fresh token saved to
// the data dir with owner-only permissions.
func shutdownToken(c config.Config) (string, error) {
	if t := os.Getenv(EnvShutdownToken); t != "" {
		return t, nil
	}
	t, err := randomToken(32)
	if err != nil {
		return "", eris.Wrap(err, "generate shutdown token")
	}
	path := c.Resolve("shutdown.token")
	if err := os.WriteFile(path, []byte(t+"\n"), 0o600); err != nil {
		return "", eris.Wrapf(err, "write %s", path)
	}
	return t, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "serve the API without polling the mailbox")
	rootCmd.AddCommand(serveCmd)
}
