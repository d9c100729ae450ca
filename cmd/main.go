package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	_ "bin_monitoring/docs"
	"bin_monitoring/internal/config"
	"bin_monitoring/internal/events"
	"bin_monitoring/internal/handlers"
	"bin_monitoring/internal/hub"
	"bin_monitoring/internal/logger"
	"bin_monitoring/internal/metrics"
	"bin_monitoring/internal/repository"
	"bin_monitoring/internal/repository/db"
	"bin_monitoring/internal/server"
	"bin_monitoring/internal/service"
	"bin_monitoring/internal/source"

	"github.com/jmoiron/sqlx"
)

const shutdownTimeout = 10 * time.Second

// @title                       Bin Monitoring API
// @version                     1.0
// @description                 Bin fill levels, collection alerts and collection completion.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
func main() {
	issue := flag.String("issue-token", "", "print a token for USER_ID:ROLE (user|company|admin) and exit")
	configDir := flag.String("config", "configs", "directory containing config.yml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	log := logger.Get(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	if *issue != "" {
		if err := issueToken(cfg, *issue); err != nil {
			log.Fatalw("failed to issue token", "err", err)
		}
		return
	}

	store, err := openDB(cfg.DB, log)
	if err != nil {
		log.Fatalw("failed to open database", "driver", cfg.DB.Driver, "err", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Errorw("failed to close database", "err", cerr)
		}
	}()

	// wire dependencies
	m := metrics.New()
	liveHub := hub.New(cfg.Hub.Buffer, m)
	repos := repository.NewRepository(store, cfg.DB.Timeout)
	archive := newArchive(cfg.Influx, log)
	defer archive.Close()

	if cfg.Sensor.FallbackLatestBin {
		log.Warnw("readings without binId from unmapped devices go to the most recently created bin",
			"mapped_devices", len(cfg.Sensor.Devices))
	}
	services, err := service.NewService(service.Deps{
		Repos:      repos,
		Hub:        liveHub,
		Thresholds: cfg.Levels,
		Resolver:   source.NewDeviceResolver(cfg.Sensor.Devices, cfg.Sensor.FallbackLatestBin, repos.Bins),
		Archive:    archive,
		Metrics:    m,
		Log:        log,
		SigningKey: cfg.Auth.SigningKey,
	})
	if err != nil {
		log.Fatalw("failed to build services", "err", err)
	}

	apiHandler := handlers.NewHandler(services, liveHub, m, log.Named("http"))
	apiHandler.SetAllowedOrigins(cfg.CORS.AllowedOrigins)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	startSources(ctx, &wg, cfg.Sensor, services, log)
	startForwarder(ctx, &wg, cfg.Kafka, liveHub, log)
	if cfg.Sensor.Simulate {
		wg.Add(1)
		go func() {
			defer wg.Done()
			services.Simulator.Run(ctx, cfg.Sensor.SimulateTick)
		}()
	}

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, server.WithCORS(apiHandler.InitRoutes(), cfg.CORS.AllowedOrigins), log)

	waitForShutdown(cancel, srv, liveHub, log)
	wg.Wait()
}

// openDB opens the configured store and applies the schema.
func openDB(c config.DBConfig, log *logger.Logger) (*sqlx.DB, error) {
	if c.Driver == db.DriverSQLite && c.Path == "" {
		log.Infow("db.path not set in config; using default file", "default", "bins.db")
		c.Path = "bins.db"
	}
	if c.Driver == db.DriverSQLite && c.MaxOpenConns > 1 {
		log.Infow("sqlite uses a single connection; bins are written one at a time", "max_open_conns", c.MaxOpenConns)
	}
	return db.Open(db.Options{
		Driver:       c.Driver,
		Path:         c.Path,
		DSN:          c.DSN,
		MaxOpenConns: c.MaxOpenConns,
	})
}

func newArchive(c config.InfluxConfig, log *logger.Logger) repository.ReadingArchive {
	if c.URL == "" {
		return repository.NopArchive{}
	}
	log.Infow("archiving readings to influxdb", "url", c.URL, "bucket", c.Bucket)
	return repository.NewInfluxArchive(c.URL, c.Token, c.Org, c.Bucket)
}

func startSources(ctx context.Context, wg *sync.WaitGroup, c config.SensorConfig, sink source.Sink, log *logger.Logger) {
	var sources []source.Source
	if c.SerialDevice != "" {
		sources = append(sources, source.NewSerialSource(c.SerialDevice, c.SerialDeviceID, log.Named("serial")))
	}
	if c.MQTTBroker != "" {
		sources = append(sources, source.NewMQTTSource(c.MQTTBroker, c.MQTTClientID, c.MQTTTopic, log.Named("mqtt")))
	}
	if len(sources) == 0 && !c.Simulate {
		log.Warnw("no reading source configured; only manual readings will be accepted")
	}

	for _, src := range sources {
		wg.Add(1)
		go func(src source.Source) {
			defer wg.Done()
			log.Infow("reading source started", "source", src.Name())
			if err := src.Run(ctx, sink); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorw("reading source stopped", "source", src.Name(), "err", err)
			}
		}(src)
	}
}

func startForwarder(ctx context.Context, wg *sync.WaitGroup, c config.KafkaConfig, h *hub.Hub, log *logger.Logger) {
	if len(c.Brokers) == 0 {
		return
	}
	fwd := events.NewForwarder(h, events.NewWriter(c.Brokers, c.Topic), log.Named("kafka"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		fwd.Run(ctx)
	}()
	log.Infow("forwarding events to kafka", "brokers", c.Brokers, "topic", c.Topic)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler http.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, h *hub.Hub, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop sources, simulator and forwarder
	cancel()
	// end live sessions; hijacked connections are not tracked by Shutdown
	h.Close()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}

// issueToken prints a signed token for arg "USER_ID:ROLE".
func issueToken(cfg config.Config, arg string) error {
	idPart, role, ok := strings.Cut(arg, ":")
	if !ok {
		return fmt.Errorf("want USER_ID:ROLE, got %q", arg)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return fmt.Errorf("user id %q: %w", idPart, err)
	}
	token, err := service.NewAuthService(cfg.Auth.SigningKey, 0).IssueToken(id, role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
