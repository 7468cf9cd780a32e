package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hrms-backend/internal/bootstrap"
	"hrms-backend/internal/shared/config"
	"hrms-backend/internal/shared/telemetry"
)

// Builder constructs the application for one command invocation.
type Builder func(ctx context.Context, cfg config.Config) (*bootstrap.App, error)

type appKey struct{}

// Command is the hrops command tree plus what one invocation opened.
type Command struct {
	*cobra.Command
	app        *bootstrap.App
	restoreLog func()
}

// NewRootCommand returns the hrops command tree. build may be nil.
func NewRootCommand(build Builder) *Command {
	if build == nil {
		build = bootstrap.Build
	}
	v := viper.New()
	c := &Command{}

	root := &cobra.Command{
		Use:           "hrops",
		Short:         "Operate the HR cascade store from the terminal",
		Long:          "hrops applies status transitions, prints statistics and runs the daily operations pass against the configured store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(v); err != nil {
				return err
			}
			c.restoreLog = telemetry.SetOutput(cmd.ErrOrStderr())
			gin.SetMode(gin.ReleaseMode)

			app, err := build(cmd.Context(), resolveConfig(v, config.Load()))
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			c.app = app
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			return nil
		},
	}
	c.Command = root

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.hrops.yaml)")
	flags.String("store", "", "store backend: memory, file, s3, postgres, sqlite")
	flags.String("local-store-dir", "", "directory for the file backend")
	flags.String("sqlite-path", "", "database file for the sqlite backend")
	flags.String("database-url", "", "postgres connection URL")
	flags.String("redis-url", "", "redis URL for the activity stream")
	flags.String("rules", "", "cascade rules YAML file")
	flags.Bool("seed", false, "seed demo data into an empty store")
	flags.Bool("json", false, "print JSON instead of formatted text")
	for _, name := range []string{"config", "store", "local-store-dir", "sqlite-path", "database-url", "redis-url", "rules", "seed", "json"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	v.SetEnvPrefix("HROPS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(
		newTransitionCommand(v),
		newStatsCommand(v),
		newDepartmentCommand(v),
		newActivityCommand(v),
		newDailyCommand(v),
	)
	return c
}

// Invoke executes the command tree and then closes the app and restores the
// log output, whether or not the command failed.
func (c *Command) Invoke(ctx context.Context) error {
	err := c.ExecuteContext(ctx)
	return errors.Join(err, c.release())
}

func (c *Command) release() error {
	var err error
	if c.app != nil {
		err = c.app.Close()
		c.app = nil
	}
	if c.restoreLog != nil {
		c.restoreLog()
		c.restoreLog = nil
	}
	return err
}

// Execute runs hrops with the process arguments.
func Execute(ctx context.Context) int {
	if err := NewRootCommand(nil).Invoke(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		return 1
	}
	return 0
}

func readConfig(v *viper.Viper) error {
	v.SetConfigType("yaml")
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", file, err)
		}
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	file := filepath.Join(home, ".hrops.yaml")
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", file, err)
	}
	return nil
}

// resolveConfig layers flags, HROPS_* env and the config file over base.
func resolveConfig(v *viper.Viper, base config.Config) config.Config {
	cfg := base
	if s := v.GetString("database-url"); s != "" {
		cfg.DatabaseURL = s
	}
	if s := v.GetString("store"); s != "" {
		cfg.StoreBackend = config.NormalizeBackend(s, cfg.DatabaseURL)
	}
	if s := v.GetString("local-store-dir"); s != "" {
		cfg.LocalStoreDir = s
	}
	if s := v.GetString("sqlite-path"); s != "" {
		cfg.SQLitePath = s
	}
	if s := v.GetString("redis-url"); s != "" {
		cfg.RedisURL = s
	}
	if s := v.GetString("rules"); s != "" {
		cfg.CascadeRulesFile = s
	}
	if v.IsSet("seed") {
		cfg.SeedDemoData = v.GetBool("seed")
	}
	return cfg
}

func appFrom(cmd *cobra.Command) *bootstrap.App {
	if cmd.Context() == nil {
		return nil
	}
	app, _ := cmd.Context().Value(appKey{}).(*bootstrap.App)
	return app
}
