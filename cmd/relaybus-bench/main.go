// (c) 2022, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command relaybus-bench drives a Session against a throttled bus and
// reports the resulting window-size and admission behavior over
// Prometheus, so the dynamic throttle's probe/back-off/idle-contract
// behavior can be observed live instead of only inside unit tests.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	relaybusconfig "github.com/SudarsanSridharan16/vespa/config"
	"github.com/SudarsanSridharan16/vespa/session"
	"github.com/SudarsanSridharan16/vespa/throttle"
	"github.com/SudarsanSridharan16/vespa/transport"
	"github.com/SudarsanSridharan16/vespa/transport/memory"
	"github.com/SudarsanSridharan16/vespa/transport/ws"
	"github.com/SudarsanSridharan16/vespa/utils/logging"
)

var (
	cfgFile     string
	messages    int
	concurrency int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relaybus-bench",
		Short: "Drive a throttled message-bus session and report its behavior",
		RunE:  runBench,
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "path to a relaybus.yaml config file")
	cmd.Flags().IntVar(&messages, "messages", 5000, "number of messages to send")
	cmd.Flags().IntVar(&concurrency, "concurrency", 64, "max concurrent Send calls")

	v := viper.New()
	if err := relaybusconfig.BindFlags(cmd.Flags(), v); err != nil {
		panic(err)
	}
	cmd.SetContext(context.WithValue(context.Background(), viperKey{}, v))
	return cmd
}

type viperKey struct{}

func runBench(cmd *cobra.Command, _ []string) error {
	v := cmd.Context().Value(viperKey{}).(*viper.Viper)
	cfg, err := relaybusconfig.Load(cfgFile, v)
	if err != nil {
		return err
	}

	logLevel, err := logging.ToLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logging.Info
	}
	factory := logging.NewFactory(logging.Config{
		Directory:    cfg.LogDir,
		LogLevel:     logLevel,
		DisplayLevel: logging.Info,
	})
	defer factory.Close()
	log, err := factory.MakeSession("bench")
	if err != nil {
		return err
	}

	policy := throttle.NewDynamicPolicy()
	cfg.Throttle.ApplyTo(policy)

	registry := prometheus.NewRegistry()
	instrumented, err := throttle.NewInstrumentedPolicy(policy, "relaybus", registry)
	if err != nil {
		return fmt.Errorf("register throttle metrics: %w", err)
	}

	bus, err := newBus(cmd.Context(), cfg.Bus)
	if err != nil {
		return err
	}

	sess := session.New(instrumented, bus, log)
	defer sess.Close()

	stopMetrics := serveMetrics(cfg.MetricsAddr, registry)
	defer stopMetrics()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bodies := make([][]byte, messages)
	for i := range bodies {
		bodies[i] = []byte(fmt.Sprintf("message-%d", i))
	}

	start := time.Now()
	if err := sess.SendAll(ctx, bodies, concurrency); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	elapsed := time.Since(start)
	fmt.Printf("sent %d messages in %s (final window size ceiling: %d)\n",
		messages, elapsed, sess.MaxPendingCount())
	return nil
}

func newBus(ctx context.Context, cfg relaybusconfig.BusConfig) (transport.Bus, error) {
	switch cfg.Kind {
	case "", "memory":
		return memory.New(
			time.Duration(cfg.LatencyMillis)*time.Millisecond,
			time.Duration(cfg.JitterMillis)*time.Millisecond,
			cfg.ErrorRate,
		), nil
	case "ws":
		if cfg.URL == "" {
			return nil, fmt.Errorf("bus.url is required when bus.kind=ws")
		}
		return ws.Dial(ctx, cfg.URL)
	default:
		return nil, fmt.Errorf("unknown bus kind %q", cfg.Kind)
	}
}

// serveMetrics starts an HTTP server exposing /metrics and /healthz
// and returns a function that shuts it down.
func serveMetrics(addr string, registry *prometheus.Registry) func() {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
