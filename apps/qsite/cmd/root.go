package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quatton/qsite/pkg/qcomp"
	"github.com/quatton/qsite/pkg/qconfig"
	"github.com/quatton/qsite/pkg/qfetch"
	"github.com/quatton/qsite/pkg/qlog"
	"github.com/quatton/qsite/pkg/qsite"
)

type contextKey string

const appContextKey contextKey = "qsiteapp"

// App is what every subcommand runs with.
type App struct {
	Config *qconfig.Config
	Env    *qconfig.Env
	Log    *qlog.Logger
}

var (
	cfgFile string
	envFile string
	quiet   bool
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "qsite",
		Short: "Deploy a component's web app to S3 behind CloudFront",
		Long: `qsite takes a web component installed in your node_modules, fetches its
prebuilt artifacts with bit, uploads them to a private S3 bucket and serves
them through a CloudFront distribution.

Project settings live in qsite.yaml (with local overrides in
.qsite/config.yaml); backend endpoints and secrets come from QSITE_*
environment variables or a .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := qconfig.LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			env, err := qconfig.LoadEnv(envFile)
			if err != nil {
				return err
			}

			app := &App{Config: cfg, Env: env, Log: qlog.FromFlags(quiet, verbose)}
			if used := cfg.ConfigFileUsed(); used != "" {
				app.Log.Debug("Loaded config", "file", used)
			}

			ctx := context.WithValue(cmd.Context(), appContextKey, app)
			cmd.SetContext(ctx)

			return nil
		},
	}
)

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"bucket":      qconfig.BucketNameKey,
	"package":     qconfig.PackageKey,
	"variant":     qconfig.VariantKey,
	"workspace":   qconfig.WorkspaceKey,
	"stack":       qconfig.StackKey,
	"region":      qconfig.RegionKey,
	"concurrency": qconfig.ConcurrencyKey,
	"keep-stale":  qconfig.KeepStaleKey,
}

func applyFlags(cmd *cobra.Command, cfg *qconfig.Config) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		var value any = f.Value.String()
		switch f.Value.Type() {
		case "bool":
			value = f.Value.String() == "true"
		case "int":
			n, err := cmd.Flags().GetInt(name)
			if err != nil {
				return err
			}
			value = n
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// GetApp retrieves the App from the command context
func GetApp(cmd *cobra.Command) (*App, error) {
	app, ok := cmd.Context().Value(appContextKey).(*App)
	if !ok {
		return nil, errors.New("no config in context")
	}
	return app, nil
}

func mustApp(cmd *cobra.Command) *App {
	app, err := GetApp(cmd)
	if err != nil {
		qlog.NewDefault().Fatal("qsite not initialized", "error", err)
	}
	return app
}

// SiteArgs builds the site inputs from configuration.
func (a *App) SiteArgs() (qsite.Args, error) {
	ws, err := qcomp.NewWorkspace(a.Config.Workspace)
	if err != nil {
		return qsite.Args{}, fmt.Errorf("resolving workspace: %w", err)
	}
	return qsite.Args{
		BucketName:  a.Config.BucketName,
		PackagePath: a.Config.Package,
		Variant:     a.Config.Variant,
		Workspace:   ws,
		Fetcher: qfetch.New(ws.Root,
			qfetch.WithBinary(a.Config.Tool.Binary),
			qfetch.WithAspect(a.Config.Tool.Aspect),
			qfetch.WithLogger(a.Log),
		),
		KeepStale: a.Config.KeepStale,
		Log:       a.Log,
	}, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (YAML). Searches: qsite.yaml, qsite.yml, .qsite.yaml, then merges .qsite/config.yaml")
	pf.StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "only print warnings and errors")
	pf.BoolVarP(&verbose, "verbose", "v", false, "print debug output")

	pf.String("bucket", "", "logical bucket name (overrides config)")
	pf.String("package", "", "installed entry path of the web component package (overrides config)")
	pf.String("variant", "", "artifacts subdirectory to deploy (overrides config)")
	pf.String("workspace", "", "workspace root holding tmp/ (overrides config)")
	pf.String("stack", "", "stack name (overrides config)")
	pf.String("region", "", "AWS region (overrides config)")
	pf.Int("concurrency", 0, "parallel uploads for sync (overrides config)")
	pf.Bool("keep-stale", false, "keep previously fetched artifacts (overrides config)")
}
