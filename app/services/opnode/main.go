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

	"github.com/ardanlabs/conf/v3"
	"github.com/qingah/zkdpos/app/services/opnode/handlers"
	"github.com/qingah/zkdpos/business/core/rollup"
	"github.com/qingah/zkdpos/business/sys/registry"
	"github.com/qingah/zkdpos/foundation/events"
	"github.com/qingah/zkdpos/foundation/logger"
	"github.com/qingah/zkdpos/foundation/zkdpos/genesis"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("OPNODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7280"`
			PublicHost      string        `conf:"default:0.0.0.0:8280"`
			PrivateHost     string        `conf:"default:0.0.0.0:9280"`
		}
		Rollup struct {
			GenesisPath string `conf:"default:zarf/genesis.json"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "OPNODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	fmt.Println(`  _____ _  ______  ____   ___  ____     ___  ____  _   _  ___  ____  _____ `)
	fmt.Println(` |__  /| |/ /  _ \|  _ \ / _ \/ ___|   / _ \|  _ \| \ | |/ _ \|  _ \| ____|`)
	fmt.Println(`   / / | ' /| | | | |_) | | | \___ \  | | | | |_) |  \| | | | | | | |  _|  `)
	fmt.Println(`  / /_ | . \| |_| |  __/| |_| |___) | | |_| |  __/| |\  | |_| | |_| | |___ `)
	fmt.Println(` /____||_|\_\____/|_|    \___/|____/   \___/|_|   |_| \_|\___/|____/|_____|`)
	fmt.Print("\n")

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Genesis Support

	// The genesis file carries the network parameters, the registered
	// tokens and the seeded account leaves.
	gen, err := genesis.Load(cfg.Rollup.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis file: %w", err)
	}

	network, err := types.ParseNetwork(gen.Network)
	if err != nil {
		return fmt.Errorf("genesis network: %w", err)
	}

	// Logging the tokens for documentation in the logs.
	for _, token := range gen.Tokens {
		log.Infow("startup", "status", "token", "id", token.ID, "symbol", token.Symbol, "address", token.Address)
	}

	// =========================================================================
	// Rollup Support

	// The registry owns the token list and the account tree view. Seed it
	// with the genesis accounts and balances.
	reg := registry.New(gen.Tokens)
	for _, acct := range gen.Accounts {
		record, err := reg.AssignAccount(acct.Address)
		if err != nil {
			return fmt.Errorf("seeding account %s: %w", acct.Address, err)
		}

		for symbol, value := range acct.Balances {
			token, err := gen.TokenBySymbol(symbol)
			if err != nil {
				return fmt.Errorf("seeding account %s: %w", acct.Address, err)
			}

			amount, err := genesis.ParseAmount(value)
			if err != nil {
				return fmt.Errorf("seeding account %s: %w", acct.Address, err)
			}

			reg.Credit(record.ID, token.ID, amount)
		}

		log.Infow("startup", "status", "account", "id", record.ID, "address", record.Address)
	}

	// The events package sends rollup events to any websocket client that
	// is connected into the system.
	evts := events.New()

	// The core value represents the operation layer of the node: admission,
	// priority queue tracking and block assembly.
	core, err := rollup.New(rollup.Config{
		Log:           log,
		Network:       network,
		Accounts:      reg,
		Assigner:      reg,
		State:         reg,
		Tokens:        reg,
		Evts:          evts,
		ChunkCapacity: gen.ChunkCapacity,
		FirstSerialID: gen.FirstSerialID,
		FirstBlock:    gen.FirstBlock,
	})
	if err != nil {
		return err
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Rollup:   core,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct the mux for the private API calls.
	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		Rollup:   core,
	})

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}

		// Asking listener to shut down and shed load.
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}
	}

	return nil
}
