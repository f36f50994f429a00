package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/LeonardoBeccarini/farmfuture/internal/catalog"
	ents "github.com/LeonardoBeccarini/farmfuture/internal/model/entities"
	"github.com/LeonardoBeccarini/farmfuture/internal/services/gateway/app"
	"github.com/LeonardoBeccarini/farmfuture/internal/services/telemetry"
	"github.com/LeonardoBeccarini/farmfuture/internal/simulator"
	"github.com/LeonardoBeccarini/farmfuture/pkg/dedup"
	"github.com/LeonardoBeccarini/farmfuture/pkg/query"
	"github.com/LeonardoBeccarini/farmfuture/pkg/rabbitmq"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	cfg := new(Config)

	root := &cobra.Command{
		Use:          "farmfuture",
		Short:        "FarmFuture back-office dashboard gateway",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if envFile != "" {
				*cfg = loadConfig(envFile)
			} else {
				*cfg = loadConfig()
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")

	root.AddCommand(newServeCmd(cfg), newQueryCmd(cfg), newSummaryCmd(cfg), newSimulateCmd(cfg))
	return root
}

func newServeCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg Config, log *zap.Logger) error {
	snap, err := loadSnapshot(cfg.SeedPath)
	if err != nil {
		return err
	}
	store := catalog.NewStore(snap, log.Named("catalog"))

	// Background workers stop with ctx, including when a listener fails.
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gwCfg := app.Config{HTTPTimeout: cfg.HTTPTimeout, Registry: reg, Logger: log.Named("gateway")}
	var wg sync.WaitGroup

	// InfluxDB
	var writer *telemetry.Writer
	if cfg.InfluxURL != "" {
		opts := influxdb2.DefaultOptions().
			SetBatchSize(uint(cfg.InfluxBatchSize)).
			SetFlushInterval(uint(cfg.InfluxFlush.Milliseconds()))
		influx := influxdb2.NewClientWithOptions(cfg.InfluxURL, cfg.InfluxToken, opts)
		defer influx.Close()
		writer = telemetry.NewWriter(influx.WriteAPI(cfg.InfluxOrg, cfg.InfluxBucket), log.Named("influx"))
		gwCfg.History = telemetry.NewHistory(influx.QueryAPI(cfg.InfluxOrg), cfg.InfluxBucket, cfg.HTTPTimeout)
		log.Info("influx configured", zap.String("url", cfg.InfluxURL), zap.String("bucket", cfg.InfluxBucket))
	}

	// MQTT telemetry
	if cfg.TelemetryEnabled() {
		client, err := rabbitmq.NewRabbitMQConn(ctx, &cfg.Rabbit, log.Named("mqtt"))
		if err != nil {
			return err
		}
		ingester := telemetry.NewIngester(store, writer, dedup.New(cfg.DedupTTL, cfg.DedupMax),
			telemetry.NewMetrics(reg), log.Named("telemetry"))
		consumer := rabbitmq.NewConsumer(client, cfg.StatusTopic, nil, log.Named("mqtt"))
		gwCfg.Health = &telemetry.Health{MQTT: client, Influx: writer != nil, Writer: writer}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ingester.Run(ctx, consumer); err != nil {
				log.Error("telemetry consumer stopped", zap.Error(err))
			}
		}()
	}

	// Upstream snapshot refresh
	if cfg.Upstream.BaseURL != "" {
		up := catalog.NewUpstream(cfg.Upstream, log.Named("upstream"))
		gwCfg.Upstream = up
		wg.Add(1)
		go func() {
			defer wg.Done()
			up.Refresh(ctx, store, cfg.UpstreamRefresh)
		}()
	}

	gw := app.NewGateway(gwCfg, store)

	hs := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           gw.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	gs := grpc.NewServer(grpc.UnaryInterceptor(app.LoggingInterceptor(log.Named("grpc"))))
	gw.RegisterGRPC(gs)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", cfg.GRPCAddr, err)
	}

	errc := make(chan error, 2)
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		if err := gs.Serve(lis); err != nil {
			errc <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		err = nil
	case err = <-errc:
	}
	log.Info("shutting down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = hs.Shutdown(shutdownCtx)
	gs.GracefulStop()
	wg.Wait()
	if writer != nil {
		writer.Flush()
	}
	return err
}

func newSimulateCmd(cfg *Config) *cobra.Command {
	var (
		interval time.Duration
		rngSeed  int64
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Publish synthetic device status reports to the broker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cfg.TelemetryEnabled() {
				return errors.New("simulate needs RABBITMQ_HOST")
			}
			log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			snap, err := loadSnapshot(cfg.SeedPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rabbit := cfg.Rabbit
			rabbit.ClientID += "-sim"
			client, err := rabbitmq.NewRabbitMQConn(ctx, &rabbit, log.Named("mqtt"))
			if err != nil {
				return err
			}
			pub := rabbitmq.NewPublisher(client, log.Named("mqtt"))
			simulator.New(snap, pub, interval, rngSeed, log.Named("simulator")).Run(ctx)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "time between report rounds")
	cmd.Flags().Int64Var(&rngSeed, "rng-seed", time.Now().UnixNano(), "random seed for reproducible runs")
	return cmd
}

func loadSnapshot(path string) (*ents.Snapshot, error) {
	if path == "" {
		return catalog.DefaultSeed()
	}
	return catalog.LoadSeed(path)
}

type lookupFlags struct {
	text     string
	facets   []string
	grpcAddr string
	seed     string
}

func (f *lookupFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.text, "query", "q", "", "free-text query")
	cmd.Flags().StringArrayVarP(&f.facets, "facet", "f", nil, "facet selection name=value (repeatable)")
	cmd.Flags().StringVar(&f.grpcAddr, "grpc", "", "query a running gateway at this gRPC address instead of a local snapshot")
	cmd.Flags().StringVar(&f.seed, "seed", "", "local seed file (defaults to SEED_PATH or the embedded demo data)")
}

func (f *lookupFlags) criteria() (query.Criteria, error) {
	c := query.Criteria{Query: f.text, Facets: query.Facets{}}
	for _, kv := range f.facets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return c, fmt.Errorf("facet %q: want name=value", kv)
		}
		c.Facets[strings.TrimSpace(k)] = v
	}
	return c, nil
}

func (f *lookupFlags) dial() (*app.DashboardClient, func(), error) {
	conn, err := grpc.NewClient(f.grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", f.grpcAddr, err)
	}
	return app.NewDashboardClient(conn), func() { _ = conn.Close() }, nil
}

func (f *lookupFlags) snapshot(cfg *Config) (*ents.Snapshot, error) {
	path := f.seed
	if path == "" {
		path = cfg.SeedPath
	}
	return loadSnapshot(path)
}

func newQueryCmd(cfg *Config) *cobra.Command {
	var f lookupFlags
	cmd := &cobra.Command{
		Use:       "query <entity>",
		Short:     "Filter one collection and print the matches as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: catalog.Entities,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.criteria()
			if err != nil {
				return err
			}
			if f.grpcAddr != "" {
				client, closeFn, err := f.dial()
				if err != nil {
					return err
				}
				defer closeFn()
				out, err := client.Query(cmd.Context(), args[0], c)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			snap, err := f.snapshot(cfg)
			if err != nil {
				return err
			}
			sel, err := catalog.Select(snap, args[0], c)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sel)
		},
	}
	f.register(cmd)
	return cmd
}

func newSummaryCmd(cfg *Config) *cobra.Command {
	var (
		f        lookupFlags
		filtered bool
	)
	cmd := &cobra.Command{
		Use:   "summary <entity>",
		Short: "Print the rollup of one collection (or \"dashboard\") as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.criteria()
			if err != nil {
				return err
			}
			if f.grpcAddr != "" {
				client, closeFn, err := f.dial()
				if err != nil {
					return err
				}
				defer closeFn()
				out, err := client.Summary(cmd.Context(), args[0], c, filtered)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			snap, err := f.snapshot(cfg)
			if err != nil {
				return err
			}
			sum, err := catalog.Summarize(snap, args[0], c, filtered)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&filtered, "filtered", false, "summarise only the records matching the query and facets")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
