package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/baronhoot/rtl-433/internal/config"
	"github.com/baronhoot/rtl-433/internal/sink"
	"github.com/baronhoot/rtl-433/internal/source"
	"github.com/baronhoot/rtl-433/internal/stats"
	"github.com/baronhoot/rtl-433/pkg/rtl433"
)

var (
	rootCmd = &cobra.Command{
		Use:   "rtl433 [code ...]",
		Short: "Decode weather sensor transmissions",
		Long: "rtl433 decodes demodulated sensor bit rows, given as {bitlen}hex codes,\n" +
			"into measurement records.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := rtl433.AnalyzeOptions{Revision: revision}
			ctx := cmd.Context()
			if len(args) == 0 {
				return runInteractive(ctx, opts)
			}
			for _, code := range args {
				if err := runAnalyze(ctx, opts, code); err != nil {
					return err
				}
			}
			return nil
		},
	}

	listenCmd = &cobra.Command{
		Use:   "listen",
		Short: "Decode a live stream of rows and publish the records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListen(cmd.Context())
		},
	}

	decodersCmd = &cobra.Command{
		Use:   "decoders",
		Short: "List the registered device decoders",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			printDecoders()
		},
	}

	revision   string
	verbose    bool
	configPath string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&revision, "revision", "auto", "protocol revision to decode: auto, extended or legacy")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	listenCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	rootCmd.AddCommand(listenCmd, decodersCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	cobra.OnInitialize(func() {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func runInteractive(ctx context.Context, opts rtl433.AnalyzeOptions) error {
	scanner := bufio.NewScanner(os.Stdin)
	logrus.Info("rtl433 analyze mode. Paste a {bitlen}hex row code and press Enter (Ctrl+D to exit).")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runAnalyze(ctx, opts, line); err != nil {
			logrus.WithError(err).Error("failed to decode row")
		}
	}
	return scanner.Err()
}

func runAnalyze(ctx context.Context, opts rtl433.AnalyzeOptions, code string) error {
	result, err := rtl433.AnalyzeCodeWithOptions(ctx, code, opts)
	if err != nil {
		return err
	}
	fmt.Println(result.String())
	return nil
}

func runListen(ctx context.Context) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil && !verbose {
		logrus.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rev := cfg.Revision
	if revision != "auto" {
		rev = revision
	}
	opts := rtl433.AnalyzeOptions{Revision: rev}

	src, err := openSource(cfg.Serial)
	if err != nil {
		return err
	}
	defer src.Close()

	sinks, closeSinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	metrics := stats.New()
	if cfg.Metrics.Enabled {
		go func() {
			if err := stats.Serve(ctx, cfg.Metrics.Listen); err != nil {
				logrus.WithError(err).Error("metrics listener failed")
			}
		}()
	}

	go func() {
		if err := src.Monitor(ctx); err != nil {
			logrus.WithError(err).Error("capture source stopped")
		}
	}()

	order := fieldOrders()
	logrus.Info("listening for rows")
	for code := range src.Rows() {
		metrics.RowReceived()
		result, err := rtl433.AnalyzeCodeWithOptions(ctx, code, opts)
		if err != nil {
			metrics.Rejected(err)
			logrus.WithError(err).WithField("code", code).Debug("row not decoded")
			continue
		}
		metrics.Decoded(result.Decoder)
		rec := sink.Record{
			Time:    time.Now(),
			Decoder: result.Decoder,
			Fields:  result.Fields,
			Order:   order[result.Decoder],
		}
		for _, s := range sinks {
			if err := s.Publish(rec); err != nil {
				metrics.PublishError()
				logrus.WithError(err).Error("publish failed")
			}
		}
	}
	return nil
}

func openSource(cfg config.SerialConfig) (source.Source, error) {
	if cfg.Port == "" {
		logrus.Info("reading row codes from stdin")
		return source.NewReaderSource(os.Stdin), nil
	}
	logrus.WithField("port", cfg.Port).Info("opening serial port")
	return source.OpenSerial(cfg.Port, source.PortOptions{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
	})
}

func buildSinks(cfg config.Config) ([]sink.Sink, func(), error) {
	var (
		sinks []sink.Sink
		file  *os.File
	)
	out := os.Stdout
	if cfg.Output.File != "" {
		f, err := os.OpenFile(cfg.Output.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open output file: %w", err)
		}
		file = f
		out = f
	}
	closeAll := func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				logrus.WithError(err).Warn("sink close failed")
			}
		}
		if file != nil {
			file.Close()
		}
	}

	switch cfg.Output.Format {
	case "csv":
		sinks = append(sinks, sink.NewCSVWriter(out, rtl433.FieldOrder()))
	case "kv":
		sinks = append(sinks, sink.NewKVWriter(out))
	default:
		sinks = append(sinks, sink.NewJSONWriter(out))
	}

	if cfg.MQTT.Enabled {
		pub, err := sink.NewPublisher(cfg.MQTT)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, pub)
	}
	return sinks, closeAll, nil
}

// fieldOrders maps each decoder to its registered field order.
func fieldOrders() map[string][]string {
	orders := make(map[string][]string)
	for _, reg := range rtl433.Decoders() {
		orders[reg.Name] = reg.Fields
	}
	return orders
}

func printDecoders() {
	for _, reg := range rtl433.Decoders() {
		fmt.Printf("%s (%s)\n", reg.Name, reg.Description)
		fmt.Printf("    modulation %s, pulse %d/%d us, reset %d us\n",
			reg.Modulation, reg.ShortWidthUS, reg.LongWidthUS, reg.ResetLimitUS)
		fmt.Printf("    fields: %s\n", strings.Join(reg.Fields, " "))
	}
}
