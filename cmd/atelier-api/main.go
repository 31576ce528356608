// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"atelier/internal/audit"
	"atelier/internal/cache"
	"atelier/internal/config"
	httptransport "atelier/internal/http"
	"atelier/internal/infra"
	"atelier/internal/modules/account"
	"atelier/internal/modules/assignment"
	"atelier/internal/modules/order"
	"atelier/internal/modules/product"
	"atelier/internal/modules/stage"
	"atelier/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := infra.NewLogger(cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres init")
	}
	redisClient := infra.NewRedis(cfg.Redis.Addr)

	backend := cache.NewRedisBackend(redisClient)
	tagIndex := cache.NewTagIndex(backend, cfg.Cache.TagIndexTTL, log)
	facade := cache.NewFacade(backend, tagIndex, cfg.Cache.DefaultTTL, log)
	coordinator := cache.NewCoordinator(tagIndex, facade, log)

	accountStore := account.NewStore(dbPool, facade)

	var verifier infra.TokenVerifier
	sinks := notify.Fanout{}
	if cfg.Firebase.ProjectID != "" {
		app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("firebase init")
		}
		verifier, err = infra.NewFirebaseVerifier(ctx, app)
		if err != nil {
			log.Fatal().Err(err).Msg("firebase verifier init")
		}
		fcmClient, err := infra.NewFCMClient(ctx, app)
		if err != nil {
			log.Fatal().Err(err).Msg("fcm init")
		}
		sinks = append(sinks, notify.NewFCMSink(fcmClient, accountStore, log))
	} else {
		log.Warn().Msg("firebase disabled: auth and push notifications are off")
	}
	if cfg.NATS.URL != "" {
		nc, err := infra.NewNATS(cfg.NATS.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("nats init")
		}
		defer nc.Close()
		sinks = append(sinks, notify.NewNATSSink(nc, log))
	}
	var sink notify.Sink = sinks
	if len(sinks) == 0 {
		sink = notify.Nop{}
	}

	auditor := audit.NewPGRecorder(dbPool, log)
	go auditor.Run(ctx)

	stageStore := stage.NewStore(dbPool, facade)
	stageSvc := stage.NewService(stageStore, coordinator, log)

	productStore := product.NewStore(dbPool, facade)
	productSvc := product.NewService(productStore, coordinator, log)

	accountSvc := account.NewService(accountStore, coordinator, log)

	assignmentStore := assignment.NewStore(dbPool)
	orderStore := order.NewStore(dbPool, facade)
	engine := order.NewEngine(orderStore, assignmentStore, stageStore, productStore, accountStore, coordinator, sink, auditor, log)
	assignmentSvc := assignment.NewService(assignmentStore, engine, coordinator, sink, log)
	engine.SetAutoAssigner(assignmentSvc)
	orderSvc := order.NewService(orderStore, engine, stageStore, coordinator, sink, auditor, log)

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Orders:      orderSvc,
		Assignments: assignmentSvc,
		Stages:      stageSvc,
		Products:    productSvc,
		Accounts:    accountSvc,
		Verifier:    verifier,
		Log:         log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("atelier-api listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server")
	}
}
