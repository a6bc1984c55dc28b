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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/burner-controller/internal/clock"
	"github.com/sweeney/burner-controller/internal/command"
	"github.com/sweeney/burner-controller/internal/gpio"
	"github.com/sweeney/burner-controller/internal/log"
	"github.com/sweeney/burner-controller/internal/logic"
	"github.com/sweeney/burner-controller/internal/metrics"
	"github.com/sweeney/burner-controller/internal/mqtt"
	"github.com/sweeney/burner-controller/internal/signals"
	"github.com/sweeney/burner-controller/internal/sim"
	"github.com/sweeney/burner-controller/internal/status"
	"github.com/sweeney/burner-controller/internal/web"
)

type runOptions struct {
	mode          string
	profile       string
	tick          time.Duration
	broker        string
	httpAddr      string
	simulate      bool
	stdin         bool
	useGPIO       bool
	pins          gpio.Pins
	debounce      time.Duration
	telemetryRate time.Duration
	logLevel      string
}

func newRunCmd() *cobra.Command {
	opts := runOptions{pins: gpio.DefaultPins}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the control loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("mode") && opts.profile != "" {
				opts.mode = ""
			}
			return run(opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.mode, "mode", "staged", "controller variant: staged or ignition")
	f.StringVar(&opts.profile, "profile", "", "profile YAML file (default: built-in configuration)")
	f.DurationVar(&opts.tick, "tick", 250*time.Millisecond, "control loop interval")
	f.StringVar(&opts.broker, "broker", "", "MQTT broker address, e.g. tcp://localhost:1883 (empty disables MQTT)")
	f.StringVar(&opts.httpAddr, "http", ":8080", "HTTP status address (empty disables)")
	f.BoolVar(&opts.simulate, "simulate", true, "simulate water and flame temperatures")
	f.BoolVar(&opts.stdin, "stdin", true, "read operator commands from stdin ("+command.Usage+")")
	f.BoolVar(&opts.useGPIO, "gpio", false, "drive the water pump and blower lines and read the RUN switch")
	f.IntVar(&opts.pins.WaterPump, "pin-pump", gpio.DefaultPins.WaterPump, "BCM pin for the water pump")
	f.IntVar(&opts.pins.Blower, "pin-blower", gpio.DefaultPins.Blower, "BCM pin for the blower")
	f.IntVar(&opts.pins.Run, "pin-run", gpio.DefaultPins.Run, "BCM pin for the RUN switch")
	f.BoolVar(&opts.pins.RunActiveLow, "run-active-low", false, "RUN switch pulls its line low (line biased high)")
	f.DurationVar(&opts.debounce, "debounce", 250*time.Millisecond, "RUN switch debounce")
	f.DurationVar(&opts.telemetryRate, "telemetry-rate", time.Second, "minimum interval between telemetry messages")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (default: $LOG_LEVEL or info)")
	return cmd
}

func run(opts runOptions) error {
	log.Configure(log.Config{Level: opts.logLevel})
	logger := log.WithComponent("controller")

	if opts.tick <= 0 {
		return fmt.Errorf("--tick must be positive, got %v", opts.tick)
	}

	clk := clock.Real{}
	engine, mode, err := buildEngine(clk, opts.mode, opts.profile)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	tracker := status.NewTracker(clk, engine.State(), status.Config{
		Mode:        mode,
		Profile:     opts.profile,
		TickMs:      opts.tick.Milliseconds(),
		TelemetryMs: opts.telemetryRate.Milliseconds(),
		Broker:      opts.broker,
		HTTPAddr:    opts.httpAddr,
		Simulate:    opts.simulate,
		GPIO:        opts.useGPIO,
	})

	c := &controller{
		engine:    engine,
		store:     signals.NewStore(),
		tracker:   tracker,
		clock:     clk,
		logger:    logger,
		telemetry: mqtt.NewThrottle(clk, opts.telemetryRate),
	}
	if opts.simulate {
		env := sim.Default()
		c.env = &env
	}

	if opts.useGPIO {
		driver, err := gpio.NewRealDriver(opts.pins)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer driver.Close()
		c.driver = driver
		c.run = logic.NewDebouncer(opts.debounce)
	}

	if opts.broker != "" {
		publisher, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker: opts.broker,
			OnConnectionChange: func(connected bool) {
				tracker.SetMQTTConnected(connected)
				metrics.SetMQTTConnected(connected)
			},
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer publisher.Close()
		c.publisher = publisher
		c.mqttConn = publisher
		if err := publisher.SubscribeCommands(c.handleMQTTCommand); err != nil {
			logger.Warn().Err(err).Msg("subscribe to commands failed")
		}
	}

	c.publishStartup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		logger.Info().Str("addr", opts.httpAddr).Msg("http status server listening")
	}

	if opts.stdin {
		g.Go(func() error {
			return c.consoleLoop(ctx, os.Stdin)
		})
		logger.Info().Msg("console ready: " + command.Usage)
	}

	ticker := time.NewTicker(opts.tick)
	defer ticker.Stop()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	logger.Info().
		Str("mode", mode).
		Str("state", string(engine.State())).
		Dur("tick", opts.tick).
		Bool("simulate", opts.simulate).
		Bool("gpio", opts.useGPIO).
		Str("broker", opts.broker).
		Msg("started")

	g.Go(func() error {
		defer cancel()
		return c.runLoop(ctx, ticker.C, sigCh)
	})
	return g.Wait()
}
