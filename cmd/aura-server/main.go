package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LubyRuffy/aurachat"
	"github.com/LubyRuffy/aurachat/auth"
	"github.com/LubyRuffy/aurachat/config"
	"github.com/LubyRuffy/aurachat/relayhttp"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath   string
	listen       string
	basePath     string
	gatewayURL   string
	model        string
	authSource   string
	authFile     string
	allowOrigins []string
	logMode      string
)

var rootCmd = &cobra.Command{
	Use:   "aura-server",
	Short: "Run the aura-chat relay in front of the AI gateway",
	Long: `aura-server exposes POST {base-path}/aura-chat. It expands message attachments,
prepends the AURA system prompt and relays the gateway's event stream to the caller.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configPath, "config", "", "YAML config file (optional)")
	f.StringVar(&listen, "listen", "", "listen address")
	f.StringVar(&basePath, "base-path", "", "base path prefix (default: "+aurachat.DefaultRelayBasePath+")")
	f.StringVar(&gatewayURL, "gateway-url", "", "AI gateway chat completions url")
	f.StringVar(&model, "model", "", "default model id")
	f.StringVar(&authSource, "auth-source", "", "api key source: env|file|auto")
	f.StringVar(&authFile, "auth-file", "", "api key file (default: ~/.config/aurachat/auth.json)")
	f.StringSliceVar(&allowOrigins, "allow-origin", nil, "CORS allowed origins, repeatable")
	f.StringVar(&logMode, "log-mode", "", "log mode: dev|prod")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger failed: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	provider, err := auth.NewProvider(cfg.AuthSource, cfg.AuthFile)
	if err != nil {
		return fmt.Errorf("invalid auth-source: %w", err)
	}

	if !strings.HasPrefix(strings.ToLower(cfg.LogMode), "dev") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if err := relayhttp.RegisterGinRoutes(r, relayConfig(cfg, provider, logger)); err != nil {
		return fmt.Errorf("register routes failed: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	local := addrForLocalClient(cfg.Listen)
	logger.Info("aura-server listening",
		zap.String("addr", cfg.Listen),
		zap.String("base_path", cfg.BasePath),
		zap.String("model", cfg.Model),
	)
	logger.Info("try: curl -N http://" + local + cfg.BasePath + "/" + aurachat.RelayFunctionName +
		` -H 'Content-Type: application/json' -d '{"messages":[{"role":"user","content":"hi"}]}'`)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// applyFlags 命令行参数优先级最高，只覆盖显式设置过的项。
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("listen") {
		cfg.Listen = listen
	}
	if f.Changed("base-path") {
		cfg.BasePath = basePath
	}
	if f.Changed("gateway-url") {
		cfg.GatewayURL = gatewayURL
	}
	if f.Changed("model") {
		cfg.Model = aurachat.NormalizeModelID(model)
	}
	if f.Changed("auth-source") {
		cfg.AuthSource = authSource
	}
	if f.Changed("auth-file") {
		cfg.AuthFile = authFile
	}
	if f.Changed("allow-origin") {
		cfg.AllowOrigins = allowOrigins
	}
	if f.Changed("log-mode") {
		cfg.LogMode = logMode
	}
}

func relayConfig(cfg *config.Config, provider auth.Provider, logger *zap.Logger) relayhttp.Config {
	return relayhttp.Config{
		BasePath:       cfg.BasePath,
		GatewayURL:     cfg.GatewayURL,
		Model:          cfg.Model,
		AllowOrigins:   cfg.AllowOrigins,
		MaxLinkChars:   cfg.MaxLinkChars,
		Logger:         logger,
		APIKeyProvider: provider.APIKey,
	}
}

// addrForLocalClient 把监听地址转换成本机可以访问的地址，用于日志里的示例命令。
func addrForLocalClient(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
