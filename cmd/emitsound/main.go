package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/emitsound/extension/internal/config"
	"github.com/emitsound/extension/internal/database"
	"github.com/emitsound/extension/internal/dispatcher"
	"github.com/emitsound/extension/internal/engine"
	"github.com/emitsound/extension/internal/host"
	"github.com/emitsound/extension/internal/logging"
	"github.com/emitsound/extension/internal/metrics"
	"github.com/emitsound/extension/internal/monitor"
	"github.com/emitsound/extension/internal/prefs"
	"github.com/emitsound/extension/internal/simhost"
)

var (
	CurrentExtensionVersion string = "0.1.0"
	BuildDate               string = "unknown"

	ExtensionName string = "emitsound"
)

var (
	SlogManager *logging.SlogManager
	Logger      *slog.Logger

	LogFilePath string
	LogFile     *os.File

	SessionStartTime time.Time = time.Now()
)

func main() {
	configDir := flag.String("config", ".", "directory containing emitsound.cfg.json")
	demo := flag.Bool("demo", false, "run a scripted demo scenario and exit")
	flag.Parse()

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info")
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	// create logs dir if it doesn't exist
	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.Mkdir(logsDir, 0755)
	}

	LogFilePath = filepath.Join(logsDir, fmt.Sprintf(
		"%s.%s.log",
		ExtensionName,
		SessionStartTime.Format("20060102_150405"),
	))

	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
	}

	SlogManager.Setup(LogFile, viper.GetString("logLevel"))
	Logger = SlogManager.Logger()
	Logger.Info("Extension starting",
		"version", CurrentExtensionVersion,
		"buildDate", BuildDate,
	)

	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// durable preference backend, reopened on config reload
	var dbManager *database.Manager
	openDurable := func() prefs.Durable {
		dbCfg := config.GetDBConfig()
		if !dbCfg.Enabled {
			return nil
		}
		if dbManager != nil {
			dbManager.Close()
		}
		dbManager = database.NewManager(zlog, dbCfg.Table)
		if err := dbManager.Connect(); err != nil {
			Logger.Error("Durable store unavailable, preferences are session-only", "error", err)
			return nil
		}
		if err := dbManager.Setup(); err != nil {
			Logger.Error("Durable store migration failed, preferences are session-only", "error", err)
			return nil
		}
		return dbManager
	}
	durable := openDurable()
	defer func() {
		if dbManager != nil {
			dbManager.Close()
		}
	}()

	// metrics
	var influx *metrics.Manager
	if config.GetInfluxConfig().Enabled {
		influx = metrics.NewManager(zlog)
		if err := influx.Connect(); err != nil {
			Logger.Error("Failed to initialize InfluxDB client", "error", err)
		}
		defer influx.Close()
	}

	world := simhost.NewWorld()
	eng := engine.NewService(engine.Dependencies{
		Players:       world,
		Inventory:     world,
		Emitter:       world,
		Messenger:     world,
		Durable:       durable,
		ReopenDurable: openDurable,
		Logger:        Logger,
	})

	eventDispatcher, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		Logger.Error("Failed to create dispatcher", "error", err)
		os.Exit(1)
	}
	eng.RegisterHandlers(eventDispatcher)

	monitorService := monitor.NewService(monitor.Dependencies{
		Snapshot: eng.Snapshot,
		Logger:   Logger,
		Influx:   influx,
		Interval: 10 * time.Second,
	})
	monitorService.Start()
	defer monitorService.Stop()

	if *demo {
		runDemo(world, eng)
		return
	}

	Logger.Info("No host binding on this platform, exiting", "hint", "run with -demo")
}

// runDemo pushes a scripted fire/broadcast sequence through the engine so an
// operator can verify a config file end to end without a game server.
func runDemo(world *simhost.World, eng *engine.Service) {
	Logger.Info("Running demo scenario")

	shooter := &simhost.Player{
		PlayerSlot: 1,
		Account:    76561198000000001,
		Actor:      0x0101,
		Pawn:       0x0102,
		Weapon: &simhost.Weapon{
			WeaponHandle: host.WeaponHandle{Index: 7, Generation: 1},
			Name:         "weapon_m4a1",
			Code:         16,
		},
	}
	observer := &simhost.Player{
		PlayerSlot: 2,
		Account:    76561198000000002,
		Actor:      0x0201,
		Pawn:       0x0202,
	}
	world.AddPlayer(shooter)
	world.AddPlayer(observer)
	world.SetInventory(shooter.Account, []host.EquipmentItem{
		{Type: "customweapon", WeaponSpec: viper.GetString("demo.weaponSpec")},
	})

	eng.OnPlayerConnect(shooter)
	eng.OnPlayerConnect(observer)
	eng.RunPending()

	eng.HandleWeaponFire(shooter.Actor, host.FireContext{
		WeaponName:    "weapon_m4a1",
		Silenced:      false,
		SilencedKnown: true,
	})

	msg := &simhost.Broadcast{
		Actor:     shooter.Actor,
		Code:      16,
		CodeKnown: true,
		Audience:  []host.Player{shooter, observer},
	}
	eng.HandleBroadcast(msg)

	for _, emission := range world.Emitted {
		Logger.Info("Demo emission",
			"event", emission.Event,
			"sourceSlot", emission.SourceSlot,
			"recipients", len(emission.Recipients),
		)
	}
	Logger.Info("Demo complete",
		"emissions", len(world.Emitted),
		"originalSuppressed", msg.Cleared,
	)
}
