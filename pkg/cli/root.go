package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/code-payments/pda-provisioner/pkg/metrics"
	"github.com/code-payments/pda-provisioner/pkg/solana"
)

const (
	envPrefix = "PROVISIONER"

	defaultAppName = "pda-provisioner"

	newRelicShutdownTimeout = 10 * time.Second
)

const (
	configFlag             = "config"
	logLevelFlag           = "log-level"
	formatFlag             = "format"
	appNameFlag            = "app-name"
	newRelicLicenseKeyFlag = "new-relic-license-key"
	rpcRateFlag            = "rpc-rate"
)

var validFormats = []string{formatText, formatJSON}

type rootOptions struct {
	v   *viper.Viper
	log *logrus.Entry
	app *newrelic.Application
}

// NewRootCommand returns the provisioner CLI. Every flag can also be supplied
// through a PROVISIONER_ prefixed environment variable or a config file.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{
		v:   viper.New(),
		log: logrus.StandardLogger().WithField("type", "cli"),
	}

	cmd := &cobra.Command{
		Use:   "provisioner",
		Short: "Derive and provision per-requester program storage",
		Long: `Derive and provision per-requester program storage.

Storage addresses are program derived addresses seeded by the requester's
public key. Provisioning creates the account, funds it for rent exemption,
and initializes its record.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.app != nil {
				opts.app.Shutdown(newRelicShutdownTimeout)
			}
		},
	}

	cmd.PersistentFlags().String(configFlag, "", "optional config file path")
	cmd.PersistentFlags().String(logLevelFlag, "info", "log level")
	cmd.PersistentFlags().String(formatFlag, formatText, "output format (text|json)")
	cmd.PersistentFlags().String(appNameFlag, defaultAppName, "application name reported to New Relic")
	cmd.PersistentFlags().String(newRelicLicenseKeyFlag, "", "New Relic license key; metrics are disabled when empty")
	cmd.PersistentFlags().Float64(rpcRateFlag, 0, "maximum RPC requests per second per method; unlimited when zero")

	cmd.AddCommand(newDeriveCommand(opts))
	cmd.AddCommand(newRentCommand(opts))
	cmd.AddCommand(newInspectCommand(opts))
	cmd.AddCommand(newSimulateCommand(opts))

	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command) error {
	o.v.SetEnvPrefix(envPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	if err := o.v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "error binding flags")
	}

	if path := o.v.GetString(configFlag); len(path) > 0 {
		o.v.SetConfigFile(path)
		if err := o.v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "error reading config file %s", path)
		}
	}

	if !isValidFormat(o.v.GetString(formatFlag)) {
		return errors.Errorf("invalid format %q: must be one of %v", o.v.GetString(formatFlag), validFormats)
	}

	if key := o.v.GetString(newRelicLicenseKeyFlag); len(key) > 0 {
		app, err := newrelic.NewApplication(
			newrelic.ConfigAppName(o.v.GetString(appNameFlag)),
			newrelic.ConfigLicense(key),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return errors.Wrap(err, "error connecting to new relic")
		}

		o.app = app
		cmd.SetContext(metrics.NewContext(contextOf(cmd), app))
	}

	o.configureLogger(cmd.ErrOrStderr())
	return nil
}

func (o *rootOptions) configureLogger(out io.Writer) {
	var formatter logrus.Formatter = &logrus.TextFormatter{}
	if o.v.GetString(formatFlag) == formatJSON {
		formatter = &logrus.JSONFormatter{}
	}

	if o.app != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(o.app, formatter))
	} else {
		logrus.SetFormatter(formatter)
	}

	level := o.v.GetString(logLevelFlag)
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		o.log.WithField("log_level", level).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(parsed)
	}

	logrus.SetOutput(out)
}

// startTransaction wraps a command's work in a New Relic transaction so
// method traces below it are recorded.
func (o *rootOptions) startTransaction(ctx context.Context, name string) (context.Context, func()) {
	if o.app == nil {
		return ctx, func() {}
	}

	txn := o.app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}

func (o *rootOptions) rpcClient(endpoint string) solana.Client {
	return solana.NewWithRateLimit(solana.ResolveEndpoint(endpoint), nil, o.v.GetFloat64(rpcRateFlag))
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}
