package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/oschwald/geoip2-golang"

	"bgp_tester/bgp"
)

const (
	SERVER_NAME    = "BGP-Tester-Agent"
	SERVER_VERSION = "1.0"
)

var SERVER_SIGNATURE = fmt.Sprintf("%s (%s; %s; %s)", SERVER_NAME+"/"+SERVER_VERSION, runtime.GOOS, runtime.GOARCH, runtime.Version())

func main() {
	configFile := flag.String("c", "config.json", "Path to the JSON configuration file")
	help := flag.Bool("h", false, "Print this message")
	flag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "Usage:", os.Args[0], "[-c config_file]")
		flag.PrintDefaults()
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	initLogger(&cfg.Logger, cfg.Server.Debug)
	defer logger.Close()

	var geoDB *geoip2.Reader
	if cfg.Metric.MaxMindGeoLiteCountryMmdbPath != "" {
		geoDB, err = geoip2.Open(cfg.Metric.MaxMindGeoLiteCountryMmdbPath)
		if err != nil {
			logger.Fatalf("Failed to load MaxMind GeoLiteCountry MMDB: %v", err)
		}
	}

	session, err := bgp.NewSession(cfg.BGP.sessionConfig())
	if err != nil {
		logger.Fatalf("Invalid BGP session config: %v", err)
	}

	srv := &apiServer{
		cfg:     cfg,
		session: session,
		geo:     geoDB,
		rtt:     newRttMonitor(),
	}

	if cfg.BGP.ConnectOnStartup {
		// The API stays up either way; operators can retry over /connect.
		if err := session.Start(); err != nil {
			logger.Printf("Initial BGP session start failed: %v", err)
		}
	}

	go rttTask(cfg, srv.rtt)

	app := fiber.New(fiber.Config{
		AppName:            SERVER_NAME,
		ServerHeader:       SERVER_SIGNATURE,
		EnableIPValidation: true,
		TrustedProxies:     cfg.Server.TrustedProxies,
		ReadTimeout:        time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:       time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:        time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadBufferSize:     cfg.Server.ReadBufferSize,
		WriteBufferSize:    cfg.Server.WriteBufferSize,
		BodyLimit:          cfg.Server.BodyLimit,
	})

	app.Use(accessLogMiddleware(cfg.Server.Debug))
	initRouter(app, srv)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Println("Shutting down...")
		session.Stop()
		app.Shutdown()
	}()

	ln, err := createHTTPListener(cfg.Server.ListenerType, cfg.Server.Listen,
		cfg.Server.ReadBufferSize, cfg.Server.WriteBufferSize)
	if err != nil {
		logger.Fatalf("Failed to create listener: %v", err)
	}

	if err := app.Listener(ln); err != nil {
		logger.Fatalf("Server error: %v", err)
	}
}
