package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bjorshol/studentavis/internal/config"
	"github.com/Bjorshol/studentavis/internal/db"
	"github.com/Bjorshol/studentavis/internal/logging"
	"github.com/Bjorshol/studentavis/internal/router"
	"github.com/Bjorshol/studentavis/internal/seed"
	"github.com/Bjorshol/studentavis/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	initUsername string
	initPassword string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var initUserCmd = &cobra.Command{
	Use:   "init-user",
	Short: "Create an editor account if it does not exist",
	Long: `Create an editor account with a bcrypt hashed password.

Credentials default to SUPER_ROOT_USER_NAME and SUPER_ROOT_PASSWORD.
An existing account is left untouched.`,
	RunE: runInitUser,
}

var ensureCategoriesCmd = &cobra.Command{
	Use:   "ensure-categories",
	Short: "Align stored categories with the editorial whitelist",
	RunE:  runEnsureCategories,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo users, pages and posts in an empty database",
	RunE:  runSeed,
}

func init() {
	initUserCmd.Flags().StringVar(&initUsername, "username", "", "editor username (default $SUPER_ROOT_USER_NAME)")
	initUserCmd.Flags().StringVar(&initPassword, "password", "", "editor password (default $SUPER_ROOT_PASSWORD)")
}

// bootstrap 读取配置、创建日志并打开数据库。
func bootstrap() (config.AppConfig, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.GinMode != gin.ReleaseMode)
	if err != nil {
		return cfg, nil, fmt.Errorf("create logger: %w", err)
	}

	if err := db.Init(cfg.DatabasePath); err != nil {
		return cfg, logger, fmt.Errorf("initialize database: %w", err)
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	gin.SetMode(cfg.GinMode)

	if cfg.SuperRootUserName != "" && cfg.SuperRootPassword != "" {
		created, err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword)
		if err != nil {
			return fmt.Errorf("ensure editor account: %w", err)
		}
		if created {
			logger.Info("editor account created", zap.String("username", cfg.SuperRootUserName))
		}
	}

	r, api, err := router.SetupRouter(cfg, db.DB, logger)
	if err != nil {
		return fmt.Errorf("setup router: %w", err)
	}

	report, err := api.Categories().EnsureEditorialCategories()
	if err != nil {
		return fmt.Errorf("ensure categories: %w", err)
	}
	logger.Info("categories aligned",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("posts_changed", report.PostsChanged),
		zap.Int("deleted", report.Deleted))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr), zap.String("site", cfg.SiteBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runInitUser(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	username := initUsername
	if username == "" {
		username = cfg.SuperRootUserName
	}
	password := initPassword
	if password == "" {
		password = cfg.SuperRootPassword
	}

	created, err := db.EnsureUser(db.DB, username, password)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Opprettet redaktør %s\n", username)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Brukeren %s finnes allerede\n", username)
	}
	return nil
}

func runEnsureCategories(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	report, err := service.NewCategoryService(db.DB, cfg.Site).EnsureEditorialCategories()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Kategorier: %d opprettet, %d oppdatert, %d slettet, %d saker endret\n",
		report.Created, report.Updated, report.Deleted, report.PostsChanged)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	home := service.NewHomeRevision(db.DB, logger)
	posts := service.NewPostService(db.DB, logger)
	posts.SetHomeInvalidator(home)
	front := service.NewFrontPageService(db.DB, posts, cfg.Site.FrontPageMaxItems, logger)
	front.SetHomeInvalidator(home)
	service.NewDisplaySizeSync(posts, front, logger).Register()

	report, err := seed.Run(cmd.Context(), db.DB, posts, front,
		service.NewCategoryService(db.DB, cfg.Site), service.NewPageService(db.DB), logger)
	if errors.Is(err, seed.ErrAlreadySeeded) {
		fmt.Fprintln(cmd.OutOrStdout(), "Databasen har allerede saker, hopper over")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Opprettet %d brukere, %d sider, %d saker (%d publisert, %d på forsiden)\n",
		report.Users, report.Pages, report.Posts, report.Published, report.Pinned)
	fmt.Fprintln(cmd.OutOrStdout(), "Logg inn som redaktor / redaktor123")
	return nil
}
