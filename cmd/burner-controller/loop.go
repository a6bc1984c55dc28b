package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/burner-controller/internal/clock"
	"github.com/sweeney/burner-controller/internal/command"
	"github.com/sweeney/burner-controller/internal/gpio"
	"github.com/sweeney/burner-controller/internal/logic"
	"github.com/sweeney/burner-controller/internal/metrics"
	"github.com/sweeney/burner-controller/internal/mqtt"
	"github.com/sweeney/burner-controller/internal/signals"
	"github.com/sweeney/burner-controller/internal/sim"
	"github.com/sweeney/burner-controller/internal/status"
)

// controller wires one engine to its inputs and outputs. Only engine, store,
// tracker, clock and logger are required.
type controller struct {
	engine  logic.Engine
	store   *signals.Store
	tracker *status.Tracker
	clock   clock.Clock
	logger  zerolog.Logger

	publisher mqtt.Publisher
	mqttConn  mqtt.ConnectionStatus
	telemetry *mqtt.Throttle
	driver    gpio.Driver
	run       *logic.Debouncer // RUN switch on the GPIO driver
	env       *sim.Environment
}

// tick performs one control step: read the RUN switch, snapshot the inputs,
// tick the engine, then apply and report the result. Failures are logged and
// never stop the loop.
func (c *controller) tick() {
	now := c.clock.Now()
	c.readRunSwitch(now)

	snap := c.store.Snapshot()
	prevCycle := c.tracker.CycleID()
	step, err := c.engine.Tick(snap)
	if err != nil {
		var guardErr *logic.GuardEvaluationError
		if errors.As(err, &guardErr) {
			metrics.RecordGuardError(guardErr.State)
		}
		c.tracker.RecordGuardError(err)
		c.logger.Warn().Err(err).Str("event", "guard_error").Str("state", string(step.State)).Msg("guard evaluation failed, retrying next tick")
	}

	metrics.RecordStep(step)
	c.tracker.Update(step, snap, currentStage(c.engine))

	if step.StageEntered != "" {
		c.logger.Info().Str("event", "stage").Str("state", string(step.State)).Str("stage", step.StageEntered).Msg("stage entered")
	}
	if ev := step.Transition; ev != nil {
		cycle := c.tracker.CycleID()
		if cycle == "" {
			cycle = prevCycle
		}
		c.logger.Info().
			Str("event", "transition").
			Str("from", string(ev.From)).
			Str("to", string(ev.To)).
			Str("reason", string(ev.Reason)).
			Str("cycle", cycle).
			Msg("state changed")
		if c.publisher != nil {
			if err := c.publisher.PublishTransition(*ev, cycle); err != nil {
				c.logger.Warn().Err(err).Msg("publish transition failed")
			}
		}
	}

	if c.driver != nil {
		if err := c.driver.Apply(step.Outputs); err != nil {
			c.logger.Error().Err(err).Msg("apply outputs failed")
		}
	}

	if c.publisher != nil && (step.Transition != nil || c.telemetry == nil || c.telemetry.Allow()) {
		err := c.publisher.PublishTelemetry(mqtt.Telemetry{
			Timestamp: now,
			State:     step.State,
			Stage:     currentStage(c.engine),
			CycleID:   c.tracker.CycleID(),
			Outputs:   step.Outputs,
			Inputs:    snap,
		})
		if err != nil {
			c.logger.Debug().Err(err).Msg("publish telemetry failed")
		}
	}
	if c.mqttConn != nil {
		connected := c.mqttConn.IsConnected()
		c.tracker.SetMQTTConnected(connected)
		metrics.SetMQTTConnected(connected)
	}

	if c.env != nil {
		c.env.Step(step.State, c.store)
	}
}

// readRunSwitch feeds the GPIO RUN line through the debouncer and writes the
// stable value into the store once baselined and on every change.
func (c *controller) readRunSwitch(now time.Time) {
	if c.driver == nil || c.run == nil {
		return
	}
	raw, err := c.driver.ReadRun()
	if err != nil {
		c.logger.Warn().Err(err).Msg("read run switch failed")
		return
	}
	_, wasBaselined := c.run.Stable()
	changed := c.run.Process(raw, now)
	value, baselined := c.run.Stable()
	if changed || (baselined && !wasBaselined) {
		c.logger.Info().Str("event", "run_switch").Bool("run", value).Msg("run switch changed")
		c.store.SetRun(value)
	}
}

// applyCommand applies one operator command from source.
func (c *controller) applyCommand(source string, cmd command.Command) {
	cmd.Apply(c.store)
	metrics.RecordCommand(source, true)
	c.logger.Info().Str("event", "command").Str("source", source).Str("command", cmd.String()).Msg("command applied")
}

func (c *controller) rejectCommand(source string, err error) {
	metrics.RecordCommand(source, false)
	c.logger.Warn().Err(err).Str("event", "command").Str("source", source).Msg("command rejected")
}

// handleMQTTCommand decodes a payload from the command topic.
func (c *controller) handleMQTTCommand(payload []byte) {
	cmds, err := command.Decode(payload)
	if err != nil {
		c.rejectCommand("mqtt", err)
		return
	}
	for _, cmd := range cmds {
		c.applyCommand("mqtt", cmd)
	}
}

// consoleLoop applies console commands read from r until ctx is done or r
// is exhausted.
func (c *controller) consoleLoop(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			cmd, err := command.Parse(line)
			if err != nil {
				c.rejectCommand("console", err)
				continue
			}
			c.applyCommand("console", cmd)
		}
	}
}

// runLoop ticks the controller on every tick until ctx is cancelled or a
// signal arrives, then publishes the SHUTDOWN event.
func (c *controller) runLoop(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			c.logger.Info().Str("signal", s.String()).Msg("shutting down")
			c.publishShutdown(signalName(s))
			return nil
		case <-ctx.Done():
			c.publishShutdown("CONTEXT")
			return nil
		case <-tick:
			c.tick()
		}
	}
}

func (c *controller) publishStartup() {
	if c.publisher == nil {
		return
	}
	snap := c.tracker.Snapshot()
	err := c.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("publish startup event failed")
	}
}

func (c *controller) publishShutdown(reason string) {
	if c.driver != nil {
		if err := c.driver.Apply(logic.HardwareOutputs{}); err != nil {
			c.logger.Error().Err(err).Msg("switch outputs off failed")
		}
	}
	if c.publisher == nil {
		return
	}
	if c.mqttConn != nil {
		c.tracker.SetMQTTConnected(c.mqttConn.IsConnected())
	}
	snap := c.tracker.Snapshot()
	err := c.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("publish shutdown event failed")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
