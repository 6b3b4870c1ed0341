package cmds

import (
	"fmt"
	"io"
	"time"

	"github.com/go-go-golems/askchat/pkg/answer"
	"github.com/go-go-golems/askchat/pkg/config"
	"github.com/go-go-golems/askchat/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ExitError asks main to exit with Code without printing anything more; the
// command has already reported the problem.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// App holds what every subcommand needs once flags are parsed.
type App struct {
	viper      *viper.Viper
	configFile string

	Settings *config.Settings
	Logger   zerolog.Logger
}

func NewApp() *App {
	return &App{viper: viper.New(), Logger: zerolog.Nop()}
}

// AddFlags registers the persistent flags shared by all commands.
func (a *App) AddFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ~/.askchat/config.yaml)")
	pf.String(config.KeyAPIURL, answer.DefaultBaseURL, "base URL of the answering service (env API_URL)")
	pf.Duration(config.KeyTimeout, answer.DefaultTimeout, "timeout for a single question")
	pf.Int(config.KeyMaxTurns, 6, "number of turns kept in the conversation")
	pf.Bool(config.KeyDebug, false, "show request diagnostics")
	pf.Bool(config.KeyPlain, false, "use the line interface even on a terminal")
	pf.String(config.KeyLogLevel, config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")
	pf.String(config.KeyLogFile, config.DefaultLogFile, "log file, or - for stderr")
}

// Init loads .env, binds flags, reads the configuration and sets up logging.
func (a *App) Init(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	for _, name := range []string{
		config.KeyAPIURL, config.KeyTimeout, config.KeyMaxTurns, config.KeyDebug,
		config.KeyPlain, config.KeyLogLevel, config.KeyLogFile,
	} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.viper.BindPFlag(name, f); err != nil {
				return err
			}
		}
	}

	settings, err := config.Load(a.viper, a.configFile)
	if err != nil {
		return err
	}
	if settings.Debug && logging.ParseLevel(settings.LogLevel) > zerolog.DebugLevel {
		settings.LogLevel = "debug"
	}
	a.Settings = settings

	logger, err := logging.Init(logging.Options{Level: settings.LogLevel, File: settings.LogFile})
	if err != nil {
		return err
	}
	a.Logger = logger
	a.Logger.Info().
		Str("endpoint", settings.APIURL).
		Str("config", settings.ConfigFile).
		Bool("api_key", settings.Ready()).
		Msg("askchat starting")
	return nil
}

// NewClient builds the answering-service client. The observer is only
// attached in debug mode.
func (a *App) NewClient(observer answer.Observer) (*answer.Client, error) {
	endpoint, err := a.Settings.Endpoint()
	if err != nil {
		return nil, err
	}
	opts := []answer.Option{
		answer.WithTimeout(a.Settings.Timeout),
		answer.WithLogger(a.Logger),
	}
	if a.Settings.Debug && observer != nil {
		opts = append(opts, answer.WithObserver(observer))
	}
	return answer.NewClient(endpoint, opts...), nil
}

// printExchange is the debug observer for the line interfaces.
func printExchange(w io.Writer) answer.Observer {
	return func(ex answer.Exchange) {
		status := "-"
		if ex.Status > 0 {
			status = fmt.Sprintf("%d", ex.Status)
		}
		_, _ = fmt.Fprintf(w, "[debug] POST %s -> %s in %s (request %s)\n",
			ex.URL, status, ex.Duration.Round(time.Millisecond), ex.RequestID)
		for name, values := range ex.Header {
			for _, v := range values {
				_, _ = fmt.Fprintf(w, "[debug]   %s: %s\n", name, v)
			}
		}
	}
}
