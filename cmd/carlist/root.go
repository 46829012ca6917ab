package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/carrental-web/internal/api"
	"github.com/ukydev/carrental-web/internal/auth"
	"github.com/ukydev/carrental-web/internal/config"
	"github.com/ukydev/carrental-web/internal/notify"
)

// app holds what the subcommands share once configuration is loaded.
type app struct {
	envFile string

	cfg        *config.Config
	auth       *auth.Service
	cars       *api.Client
	flash      *notify.Flash
	dispatcher *notify.Dispatcher
	broadcast  *notify.Dispatcher
	mqtt       *notify.MQTTSender
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "carlist",
		Short: "Browse and manage the car rental fleet",
		Long: `Carlist shows the cars offered by the rental API, as a web page or in the
terminal. Admin sessions can also remove cars or jump to their edit view.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file to load before reading the environment")

	rootCmd.AddCommand(
		newServeCmd(a),
		newBrowseCmd(a),
		newSessionCmd(a),
		newDevAPICmd(a),
	)
	return rootCmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ConfigureLogging()

	a.cfg = cfg
	a.auth = auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	a.cars = api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.RequestTimeout))
	a.flash = notify.NewFlash()
	// log and flash run inline so toasts exist before the response; broker
	// publishes go through the async dispatcher
	a.broadcast = notify.NewDispatcher(true)
	a.dispatcher = notify.NewDispatcher(false, notify.NewLogSender(), a.flash, a.broadcast)

	return nil
}

// enableMQTT adds the broker sender when MQTT_BROKER is set. A broker that
// cannot be reached only loses the published copy of the notifications.
func (a *app) enableMQTT() {
	if a.cfg.MQTTBroker == "" {
		return
	}

	sender, err := notify.DialMQTT(a.cfg.MQTTBroker, a.cfg.MQTTClientID, a.cfg.MQTTTopic)
	if err != nil {
		log.WithError(err).WithField("broker", a.cfg.MQTTBroker).Warn("MQTT notifications disabled")
		return
	}
	a.mqtt = sender
	a.broadcast.Register(sender)
}

func (a *app) close() {
	if a.mqtt != nil {
		a.broadcast.Unregister(a.mqtt.Name())
		a.broadcast.Wait()
		if err := a.mqtt.Close(); err != nil {
			log.WithError(err).Warn("Failed to close MQTT connection")
		}
		a.mqtt = nil
	}
}
