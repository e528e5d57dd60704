package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/appdeck"
	"github.com/hupe1980/appdeck/metrics/prom"
)

var (
	watchMetricsAddr string
	watchPreheat     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan whenever application directories change",
	Long: `Watches the configured application directories and rescans after each
burst of changes. With --metrics-addr, Prometheus metrics are served at
/metrics until the command is interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :2112")
	watchCmd.Flags().BoolVar(&watchPreheat, "preheat", false, "render every icon before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var extra []appdeck.Option
	var srv *http.Server
	if watchMetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		extra = append(extra, appdeck.WithMetricsCollector(prom.New(prom.WithRegisterer(reg))))

		ln, err := net.Listen("tcp", watchMetricsAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", watchMetricsAddr, err)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() { _ = srv.Serve(ln) }()
		fmt.Fprintf(cmd.OutOrStdout(), "metrics available at http://%s/metrics\n", ln.Addr())
	}

	deck, err := openDeck(cmd, extra...)
	if err != nil {
		return err
	}
	defer deck.Close()

	if srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if watchPreheat {
		if _, err := deck.Preheat(ctx, nil, 0); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %d applications\n", len(deck.Items()))
	if err := deck.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
