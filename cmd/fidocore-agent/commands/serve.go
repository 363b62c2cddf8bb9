package commands

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/argon-chat/fidocore/ctaphid"
	"github.com/argon-chat/fidocore/fido"
	"github.com/argon-chat/fidocore/internal/config"
	"github.com/argon-chat/fidocore/internal/telemetry"
)

// shutdownTimeout bounds how long the metrics server is given to drain
// active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the metrics endpoint and process hex-encoded HID packets from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	aaguid, err := cfg.Device.AAGUID()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector := telemetry.NewCollector(reg)

	authenticator := fido.New(fido.DefaultSettings(aaguid), fido.WithLogger(logger), fido.WithMetrics(collector))
	framer := ctaphid.NewFramer(
		ctaphid.WithLogger(logger),
		ctaphid.WithDeviceVersion(cfg.Device.VersionMajor, cfg.Device.VersionMinor, cfg.Device.BuildNumber),
		ctaphid.WithMetrics(collector),
	)
	transport := ctaphid.NewTransport(framer, authenticator, ctaphid.WithTransportLogger(logger))

	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErrs := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", slog.String("addr", cfg.Metrics.Addr), slog.String("path", cfg.Metrics.Path))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrs <- fmt.Errorf("metrics server: %w", err)
			return
		}
		serveErrs <- nil
	}()

	go processStdinPackets(transport, collector, logger)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErrs:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return metricsSrv.Shutdown(shutdownCtx)
}

// processStdinPackets reads one hex-encoded 64-byte HID packet per line
// from stdin, feeds each through transport, and prints any resulting
// outbound packets hex-encoded to stdout — a stand-in for the physical
// USB HID transport this core intentionally does not implement.
func processStdinPackets(transport *ctaphid.Transport, collector *telemetry.Collector, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		packet, err := hex.DecodeString(line)
		if err != nil {
			logger.Warn("invalid hex packet", slog.String("err", err.Error()))
			continue
		}

		collector.ObservePacket()
		for _, pkt := range transport.HandlePacket(packet) {
			if ctaphid.Command(pkt[4]&0x7F) == ctaphid.CommandError {
				msg := ctaphid.Message{Cmd: ctaphid.CommandError, Payload: pkt[7:8]}
				logger.Warn("ctaphid framing error", slog.String("err", msg.AsError().Error()))
			}
			fmt.Println(hex.EncodeToString(pkt[:]))
		}
	}
}

// newMetricsServer creates an HTTP server for the Prometheus metrics
// endpoint.
func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
