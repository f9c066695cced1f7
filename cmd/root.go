package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sergev/zoetrope/adapter"
	"github.com/sergev/zoetrope/channel"
	"github.com/sergev/zoetrope/config"
	"github.com/sergev/zoetrope/transport"
)

// Persistent flags
var (
	configFile  string
	profileName string
	portName    string
	verbose     bool
)

// State shared by the subcommands, set up by PersistentPreRunE
var (
	conf    *config.Config
	profile *config.Profile
	device  *adapter.Device
)

var rootCmd = &cobra.Command{
	Use:   "zoetrope",
	Short: "A CLI program which maps and tests LED strips of a zoetrope",
	Long: `The zoetrope tool translates the wiring table of an LED strip array into
the address order of the animation controller, and sends diagnostic commands
to the controller over a serial port.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd, args); err != nil {
			return err
		}
		return openDevice()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "configuration file (default ~/.zoetrope)")
	flags.StringVarP(&profileName, "profile", "p", "", "strip profile from the configuration")
	flags.StringVar(&portName, "port", "", "serial port of the controller, or "+transport.LoopbackPath+" for a local echo")
	flags.BoolVarP(&verbose, "verbose", "v", false, "print debug messages")
}

// setupLogging directs diagnostics to stderr of the command
func setupLogging(w io.Writer) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
	}).With().Timestamp().Logger()
}

// initConfig loads the configuration and selects the profile.
// Commands without a device use it as their PersistentPreRunE.
func initConfig(cmd *cobra.Command, args []string) error {
	setupLogging(cmd.ErrOrStderr())

	var err error
	conf, err = config.Initialize(configFile)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	profile, err = conf.Profile(profileName)
	if err != nil {
		return err
	}
	log.Debug().Str("config", conf.Path).Str("profile", profile.Name).Msg("configuration loaded")

	adapter.Reset()
	adapter.Configure(conf)
	return nil
}

// openDevice finds the controller, honouring --port
func openDevice() error {
	var err error
	device, err = adapter.Find(portName, conf.Serial)
	if err != nil {
		return fmt.Errorf("failed to find LED controller: %w", err)
	}
	log.Debug().Str("port", device.Port).Str("mode", conf.Serial.String()).Msg("controller opened")
	return nil
}

// newChannel wraps the opened device in a command channel
func newChannel() *channel.Channel {
	return channel.New(device.Transport, conf.ChannelOptions())
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
