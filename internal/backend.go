package internal

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/markusressel/fanhold/internal/api"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/engine"
	"github.com/markusressel/fanhold/internal/fans"
	"github.com/markusressel/fanhold/internal/history"
	"github.com/markusressel/fanhold/internal/hwmon"
	"github.com/markusressel/fanhold/internal/mqtt"
	"github.com/markusressel/fanhold/internal/persistence"
	"github.com/markusressel/fanhold/internal/sensors"
	"github.com/markusressel/fanhold/internal/statistics"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// time granted to hand all fans back to their previous control mode
const restoreTimeout = 10 * time.Second

// RunDaemon controls the fans of the given configuration until SIGINT or SIGTERM is received.
func RunDaemon(store *configuration.FileStore, config *configuration.Configuration) error {
	if getProcessOwner() != "root" {
		ui.Warning("Fan control usually requires root permissions to be able to modify fan speeds")
	}

	chips := hwmon.GetChips()

	e, err := engine.New(config, engine.Options{
		Clock: clock.New(),
		Store: store,
		NewFan: func(fanConfig configuration.FanConfig) (fans.Fan, error) {
			return fans.NewFan(fanConfig, chips)
		},
		Sensors: sensors.DefaultDependencies(chips),
	})
	if err != nil {
		return err
	}
	defer restoreFans(e)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	statistics.RegisterEngine(registry, e)

	var recorder *history.Recorder
	if config.History.Enabled {
		pers := persistence.NewPersistence(config.History.DbPath)
		if err := pers.Init(); err != nil {
			ui.ErrorAndNotify("History Error", "Unable to open history database %s, history is disabled: %v", config.History.DbPath, err)
		} else {
			recorder = history.NewRecorder(config.History, pers, clock.New())
			e.AddListener(recorder.Observe)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var g run.Group
	{
		// === engine
		g.Add(func() error {
			err := e.Run(ctx)
			ui.Info("Engine stopped.")
			return err
		}, func(err error) {
			cancel()
		})
	}
	if recorder != nil {
		// === history
		g.Add(func() error {
			return recorder.Run(ctx)
		}, func(err error) {
			cancel()
		})
	}
	if config.Statistics.Enabled {
		// === Prometheus Exporter
		g.Add(func() error {
			return statistics.Serve(ctx, config.Statistics.Port, registry)
		}, func(err error) {
			if err != nil {
				ui.Warning("Error stopping statistics server: %v", err)
			} else {
				ui.Info("Statistics server stopped.")
			}
			cancel()
		})
	}
	if config.Api.Enabled {
		// === REST api
		var source api.History
		if recorder != nil {
			source = recorder
		}
		server := api.NewServer(e, store, source, registry)
		g.Add(func() error {
			return server.Run(ctx, config.Api.Host, config.Api.Port)
		}, func(err error) {
			if err != nil {
				ui.Warning("Error stopping api server: %v", err)
			}
			cancel()
		})
	}
	if config.Mqtt.Enabled {
		// === MQTT
		publisher := mqtt.NewPublisher(config.Mqtt, e)
		e.AddListener(publisher.Observe)
		g.Add(func() error {
			// losing the broker must not stop fan control
			if err := publisher.Run(ctx); err != nil {
				ui.Error("MQTT publisher stopped: %v", err)
			}
			<-ctx.Done()
			return nil
		}, func(err error) {
			cancel()
		})
	}
	{
		// === configuration reload
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)

		g.Add(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hup:
					reloadConfig(ctx, store, e)
				}
			}
		}, func(err error) {
			signal.Stop(hup)
			cancel()
		})
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			select {
			case <-sig:
				ui.Info("Received SIGTERM signal, exiting...")
			case <-ctx.Done():
			}
			return nil
		}, func(err error) {
			signal.Stop(sig)
			cancel()
		})
	}

	return g.Run()
}

func reloadConfig(ctx context.Context, store configuration.Store, e *engine.Engine) {
	ui.Info("Reloading configuration...")
	config, err := store.Load()
	if err != nil {
		ui.ErrorAndNotify("Config Reload Error", "Keeping the current configuration: %v", err)
		return
	}
	if err = e.ReloadConfig(ctx, config); err != nil {
		ui.ErrorAndNotify("Config Reload Error", "%v", err)
		return
	}
	ui.Success("Configuration reloaded")
}

func restoreFans(e *engine.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()
	if err := e.Close(ctx); err != nil {
		ui.Error("Unable to restore all fans: %v", err)
		return
	}
	ui.Info("All fans restored.")
}

func getProcessOwner() string {
	stdout, err := exec.Command("ps", "-o", "user=", "-p", strconv.Itoa(os.Getpid())).Output()
	if err != nil {
		ui.Warning("Error checking process owner: %v", err)
		return ""
	}
	return strings.TrimSpace(string(stdout))
}

