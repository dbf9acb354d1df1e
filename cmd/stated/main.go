package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"hotelstay/internal/adapters/api"
	server "hotelstay/internal/adapters/http_server"
	"hotelstay/internal/adapters/identity"
	"hotelstay/internal/adapters/observability"
	"hotelstay/internal/adapters/sealed"
	"hotelstay/internal/app"
	"hotelstay/internal/domain"
	"hotelstay/internal/shared"
)

// used only when HOTELSTAY_DEVICE_SECRET is unset
const insecureDeviceSecret = "hotelstay-insecure-device-secret"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// storage
	plain, closeStore, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("open storage failed")
	}
	defer closeStore()
	log.Info().Str("driver", cfg.StorageDriver).Msg("storage ready")

	secret := cfg.DeviceSecret
	if secret == "" {
		secret = insecureDeviceSecret
	}
	protected, err := sealed.Wrap(plain, []byte(secret))
	if err != nil {
		log.Fatal().Err(err).Msg("protected storage")
	}

	// deps
	idp := identity.New(protected, time.Now)
	var gw domain.Gateway
	if cfg.APIBase != "" {
		client, err := api.New(cfg.APIBase, idp, cfg.APIRPS, cfg.APITimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize API client")
		}
		gw = client
	}
	nav := &server.Navigator{}
	c := app.NewContainer(app.Options{
		Plain:          plain,
		Protected:      protected,
		Gateway:        gw,
		Identity:       idp,
		Navigator:      nav,
		Clock:          time.Now,
		PersistTimeout: cfg.PersistTimeout,
		Workers:        cfg.BootstrapWorkers,
	})
	if _, err := c.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}

	// http
	srv := server.New(server.Options{Timeout: 15 * time.Second, AllowRemote: cfg.AllowRemote})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(server.NewHandlers(c, nav))

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("state service listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// let in-flight durable writes land before the store closes
	if err := c.Flush(shutCtx); err != nil {
		log.Error().Err(err).Msg("flush pending writes")
	}
}
