// contents-sandbox runs the in-memory contents server over real HTTP so
// clients in http mode can be exercised locally. It supports seeding from a
// JSON or YAML file plus latency and failure injection for testing client
// behaviour under degraded conditions.
package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nbhub/contents_sdk_go/internal/devseed"
	"github.com/nbhub/contents_sdk_go/internal/logging"
	"github.com/nbhub/contents_sdk_go/pkg/contents/mock"
)

type failConfig struct {
	rate float64
	code int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contents-sandbox",
		Short: "Run an in-memory contents API server",
		Long: "contents-sandbox serves the contents REST API from an in-memory store.\n" +
			"Point a client at it with NBHUB_RUNTIME_MODE=http and NBHUB_CONTENTS_API_URL.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8899", "listen address")
	flags.String("seed", "", "path to JSON or YAML seed file")
	flags.Duration("latency", 0, "artificial latency to inject per request")
	flags.String("fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (json, console)")

	viper.SetEnvPrefix("NBHUB_SANDBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	cobra.CheckErr(viper.BindPFlags(flags))

	return cmd
}

func run() error {
	if err := logging.Init(logging.Config{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logging.Sync()
	log := logging.L()

	store := mock.New()
	if seed := viper.GetString("seed"); seed != "" {
		entries, err := devseed.LoadContentsSeed(seed)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		if err := store.Seed(entries); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
		log.Info("seeded store", zap.String("file", seed), zap.Int("items", len(store.Paths())))
	}

	failCfg, err := parseFailConfig(viper.GetString("fail"))
	if err != nil {
		return fmt.Errorf("parse fail flag: %w", err)
	}
	latency := viper.GetDuration("latency")

	handler := logging.Middleware(withInjection(latency, failCfg, mock.Handler(store)))

	addr := viper.GetString("addr")
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	log.Info("contents-sandbox listening", zap.String("addr", addr))
	fmt.Println()
	fmt.Println("export NBHUB_RUNTIME_MODE=http")
	fmt.Printf("export NBHUB_CONTENTS_API_URL=http://%s\n", host)
	fmt.Println()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func withInjection(delay time.Duration, failCfg failConfig, next http.Handler) http.Handler {
	if delay == 0 && failCfg.rate == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		if failCfg.rate > 0 && rand.Float64() < failCfg.rate {
			status := failCfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			http.Error(w, "failure injected", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keyVal := strings.SplitN(part, "=", 2)
		if len(keyVal) != 2 {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		switch strings.TrimSpace(keyVal[0]) {
		case "rate":
			val, err := strconv.ParseFloat(strings.TrimSpace(keyVal[1]), 64)
			if err != nil {
				return failConfig{}, err
			}
			cfg.rate = val
		case "code":
			val, err := strconv.Atoi(strings.TrimSpace(keyVal[1]))
			if err != nil {
				return failConfig{}, err
			}
			cfg.code = val
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", keyVal[0])
		}
	}
	return cfg, nil
}
