package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/examcreator/internal/content"
	"github.com/pavelanni/examcreator/internal/examcreation"
	"github.com/pavelanni/examcreator/internal/handler"
	appI18n "github.com/pavelanni/examcreator/internal/i18n"
	"github.com/pavelanni/examcreator/internal/model"
	"github.com/pavelanni/examcreator/internal/store"
)

const sessionCleanupInterval = time.Hour

//go:generate templ generate

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examcreator",
		Short: "Build exams from a learning platform's exercise catalog",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd(), pageCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addContentFlags(f *pflag.FlagSet) {
	f.String("content-url", "http://localhost:8080", "Base URL of the content API server")
	f.Duration("content-timeout", 15*time.Second, "Per-request timeout for content API calls")
	f.Int("max-concurrency", 8, "Maximum concurrent content API calls per page load")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8090", "HTTP listen address")
	f.String("db", "examcreator.db", "SQLite database path")
	f.StringSliceP("classes", "c", nil, "Paths to class roster JSON files (repeatable)")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /exams)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set EXAMCREATOR_ADMIN_PASSWORD)")
	f.StringSlice("cors-origins", nil, "Origins allowed to call the JSON API from a browser")
	addContentFlags(f)
	addLogFlags(f)
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a class's exam draft as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "examcreator.db", "SQLite database path")
	f.String("class", "", "Class ID (required)")
	f.String("title", "", "Exam title (defaults to the class name)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(f)

	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMCREATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examcreator")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examcreator")
	v.AddConfigPath("/etc/examcreator")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// normalizeBasePath returns "" or a path with one leading and no trailing
// slash.
func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func newController(v *viper.Viper) (*examcreation.Controller, *content.Client) {
	cc := content.New(v.GetString("content-url"), v.GetDuration("content-timeout"))
	return examcreation.New(cc, cc, examcreation.WithMaxConcurrency(v.GetInt("max-concurrency"))), cc
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := loadClasses(db, v.GetStringSlice("classes")); err != nil {
		return fmt.Errorf("load classes: %w", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exams, cc := newController(v)
	pingCtx, cancel := context.WithTimeout(ctx, v.GetDuration("content-timeout"))
	err = cc.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("content API health check: %w", err)
	}
	slog.Info("content API OK", "url", v.GetString("content-url"))

	basePath := normalizeBasePath(v.GetString("base-path"))
	h := handler.New(db, exams, model.ServerConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		Lang:          lang,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if origins := v.GetStringSlice("cors-origins"); len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server",
			"addr", addr,
			"content_url", v.GetString("content-url"),
			"lang", lang,
			"base_path", basePath,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		cleanupSessions(gctx, db, sessionCleanupInterval)
		return nil
	})
	return g.Wait()
}

// cleanupSessions deletes expired auth sessions until ctx is done.
func cleanupSessions(ctx context.Context, db *store.Store, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := db.CleanupExpiredSessions()
			if err != nil {
				slog.Error("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("removed expired sessions", "count", n)
			}
		}
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	draft, err := db.ExportDraft(cmd.Context(), v.GetString("class"), v.GetString("title"))
	if err != nil {
		return fmt.Errorf("export draft: %w", err)
	}
	slog.Info("exported exam draft", "class", draft.ClassID, "exercises", draft.NumSelected)
	return writeJSON(v.GetString("output"), draft)
}

func loadClasses(db *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		n, err := db.ImportRoster(path, data)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		if n < 0 {
			slog.Info("class roster unchanged, skipping", "path", path)
			continue
		}
		slog.Info("imported classes", "path", path, "count", n)
	}
	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or EXAMCREATOR_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
