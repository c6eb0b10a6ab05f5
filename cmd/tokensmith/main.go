package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/tokensmith/internal/bootstrap"
	"github.com/dropDatabas3/tokensmith/internal/config"
	ctrl "github.com/dropDatabas3/tokensmith/internal/http/controllers/oauth"
	"github.com/dropDatabas3/tokensmith/internal/http/router"
	jwtx "github.com/dropDatabas3/tokensmith/internal/jwt"
	"github.com/dropDatabas3/tokensmith/internal/oauth2"
	"github.com/dropDatabas3/tokensmith/internal/observability/logger"
	"github.com/dropDatabas3/tokensmith/internal/store/memory"
	"github.com/dropDatabas3/tokensmith/internal/store/postgres"
	"github.com/dropDatabas3/tokensmith/internal/store/redis"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:           "tokensmith",
		Short:         "OAuth2/OIDC token endpoint service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "ruta del archivo de configuración")

	root.AddCommand(serveCmd(&cfgPath))
	root.AddCommand(migrateCmd(&cfgPath))
	root.AddCommand(seedCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el token endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "tokensmith",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()
			log := logger.L()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			be, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer be.close()

			if cfg.Seed.File != "" {
				sf, err := bootstrap.Load(cfg.Seed.File)
				if err != nil {
					return err
				}
				if err := sf.Apply(ctx, be.clientW, be.codeW, be.userStore); err != nil {
					return err
				}
				log.Info("seed applied", logger.String("file", cfg.Seed.File))
			}

			issuer, err := buildIssuer(cfg, be.sink)
			if err != nil {
				return err
			}

			service := oauth2.NewTokenService(oauth2.TokenDeps{
				Codes:    be.codes,
				Refresh:  be.refresh,
				Users:    be.users,
				Issuer:   issuer,
				IDIssuer: issuer,
				CodeTTL:  cfg.CodeTTL(),
			})
			authenticator := oauth2.NewClientAuthenticator(be.clients)

			handler := router.New(router.Deps{
				Token: ctrl.NewTokenController(authenticator, service),
			})

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("listening", logger.String("addr", cfg.Server.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				log.Info("shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}

func migrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Crea el schema de postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual: %s)", cfg.Storage.Driver)
			}
			pg, err := postgres.New(cmd.Context(), cfg.Storage.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pg.Close()
			if err := pg.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("schema ok")
			return nil
		},
	}
}

func seedCmd(cfgPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Carga un fixture de clients/users/codes en el store configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Seed.File
			}
			if file == "" {
				return fmt.Errorf("falta --file o seed.file en la configuración")
			}
			be, err := openBackends(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer be.close()
			sf, err := bootstrap.Load(file)
			if err != nil {
				return err
			}
			if err := sf.Apply(cmd.Context(), be.clientW, be.codeW, be.userStore); err != nil {
				return err
			}
			fmt.Println("seed ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "archivo de fixture YAML")
	return cmd
}

// backends agrupa las implementaciones de los collaborators según driver.
type backends struct {
	clients oauth2.ClientStore
	codes   oauth2.AuthorizationCodeStore
	refresh oauth2.RefreshTokenStore
	sink    jwtx.RefreshTokenSink
	users   oauth2.UserAuthenticator
	// userStore es no-nil solo cuando los usuarios viven en memoria
	// (el seed los necesita para hashear passwords).
	userStore *memory.UserStore
	clientW   bootstrap.ClientWriter
	codeW     bootstrap.CodeWriter
	close     func()
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	// Los usuarios siempre viven en memoria: el User Authenticator es un
	// collaborator externo y este servicio no persiste usuarios.
	userStore := memory.NewUserStore()

	switch cfg.Storage.Driver {
	case "memory":
		clients := memory.NewClientStore()
		codes := memory.NewCodeStore(cfg.CodeTTL())
		refresh := memory.NewRefreshStore()
		return &backends{
			clients:   clients,
			codes:     codes,
			refresh:   refresh,
			sink:      refresh,
			users:     userStore,
			userStore: userStore,
			clientW:   clients,
			codeW:     codes,
			close:     func() {},
		}, nil

	case "redis":
		st := redis.New(cfg.Storage.Redis.Addr, cfg.Storage.Redis.DB, cfg.Storage.Redis.Prefix, cfg.CodeTTL())
		if err := st.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		return &backends{
			clients:   st,
			codes:     st,
			refresh:   st,
			sink:      st,
			users:     userStore,
			userStore: userStore,
			clientW:   st,
			codeW:     st,
			close:     func() { _ = st.Close() },
		}, nil

	case "postgres":
		st, err := postgres.New(ctx, cfg.Storage.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &backends{
			clients:   st,
			codes:     st,
			refresh:   st,
			sink:      st,
			users:     userStore,
			userStore: userStore,
			clientW:   st,
			codeW:     st,
			close:     st.Close,
		}, nil

	default:
		return nil, fmt.Errorf("storage driver desconocido: %s", cfg.Storage.Driver)
	}
}

func buildIssuer(cfg *config.Config, sink jwtx.RefreshTokenSink) (*jwtx.Issuer, error) {
	jcfg := jwtx.Config{
		Issuer:     cfg.JWT.Issuer,
		Alg:        cfg.JWT.Alg,
		KeyID:      cfg.JWT.KeyID,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	}
	switch cfg.JWT.Alg {
	case "RS256":
		pem, err := os.ReadFile(cfg.JWT.RSAKeyFile)
		if err != nil {
			return nil, fmt.Errorf("rsa key: %w", err)
		}
		key, err := jwtx.ParseRSAKey(pem)
		if err != nil {
			return nil, fmt.Errorf("rsa key: %w", err)
		}
		jcfg.RSAKey = key
	default:
		if cfg.JWT.HMACSecret == "" {
			return nil, fmt.Errorf("falta jwt.hmac_secret (o TOKENSMITH_JWT_SECRET)")
		}
		jcfg.HMACSecret = []byte(cfg.JWT.HMACSecret)
	}
	return jwtx.New(jcfg, sink)
}
