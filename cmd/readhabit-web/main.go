package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/auth/oidc"
	"github.com/readhabit/readhabit-web/internal/auth/otp"
	"github.com/readhabit/readhabit-web/internal/backend"
	"github.com/readhabit/readhabit-web/internal/cache"
	"github.com/readhabit/readhabit-web/internal/config"
	"github.com/readhabit/readhabit-web/internal/server"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to optional YAML configuration file")
	configPathShort := flag.String("c", "", "path to optional YAML configuration file (short)")
	showVersion := flag.Bool("version", false, "show version and exit")
	showHelp := flag.Bool("help", false, "show help and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("readhabit-web v%s\n", version)
		os.Exit(0)
	}

	if *showHelp {
		fmt.Println("readhabit-web - sign-in and session front end for the reading habit app")
		fmt.Println("\nUsage:")
		flag.PrintDefaults()
		fmt.Println("\nRequired environment: APP_URL, COGNITO_DOMAIN, COGNITO_CLIENT_ID, AWS_REGION, API_BASE_URL")
		os.Exit(0)
	}

	cfgPath := *configPath
	if *configPathShort != "" {
		cfgPath = *configPathShort
	}

	if err := run(cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting readhabit-web", "version", version)

	cacheInstance, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	logger.Info("cache initialized", "type", cfg.Cache.Type)

	ctx := context.Background()

	codeFlow, err := oidc.NewProvider(cfg.IdP, cfg.Server.CallbackURL())
	if err != nil {
		return fmt.Errorf("failed to create authorization code flow: %w", err)
	}

	cognitoClient, err := otp.NewCognitoClient(ctx, cfg.IdP)
	if err != nil {
		return fmt.Errorf("failed to create user pool client: %w", err)
	}

	otpFlow, err := otp.NewProvider(cognitoClient, cfg.IdP.ClientID)
	if err != nil {
		return fmt.Errorf("failed to create otp flow: %w", err)
	}

	var claims auth.ClaimsDecoder = auth.UnverifiedDecoder{}
	if cfg.IdP.Issuer != "" {
		verifier, err := oidc.NewVerifier(ctx, cfg.IdP.Issuer, cfg.IdP.ClientID, &http.Client{Timeout: cfg.IdP.Timeout})
		if err != nil {
			return fmt.Errorf("failed to create id token verifier: %w", err)
		}
		claims = verifier
		logger.Info("id token verification enabled", "issuer", cfg.IdP.Issuer)
	}

	backendClient, err := backend.NewClient(cfg.Backend)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}

	for alias, hint := range cfg.IdP.IdentityProviders {
		logger.Info("identity provider enabled", "alias", alias, "provider", hint)
	}

	srv, err := server.New(*cfg, server.Dependencies{
		CodeFlow: codeFlow,
		OTPFlow:  otpFlow,
		Claims:   claims,
		Backend:  backendClient,
		Cache:    cacheInstance,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
