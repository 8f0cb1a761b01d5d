package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tester22000/simpleshare/internal/app"
	contentController "github.com/tester22000/simpleshare/internal/controller/content"
	"github.com/tester22000/simpleshare/internal/database"
	"github.com/tester22000/simpleshare/internal/metrics"
	"github.com/tester22000/simpleshare/internal/network"
	contentRepository "github.com/tester22000/simpleshare/internal/repository/content"
	contentService "github.com/tester22000/simpleshare/internal/service/content"
	"github.com/tester22000/simpleshare/internal/view"
)

var (
	config     Config
	configFile string
)

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&configFile, "config", "c", "", "Config file (.yaml)")

	flags.StringVarP(&config.Listen, "listen", "l", "0.0.0.0:5000", "Host and port to listen on")

	flags.StringVar((*string)(&config.Database.Type), "type", string(database.SQLite), "Database type (one of postgresql sqlite)")
	flags.StringVar(&config.Database.URI, "uri", "simpleshare.db", "Database URI (or file for SQLite)")

	flags.UintVar(&config.Settings.Limit, "limit", contentService.DefaultLimit, "Maximum size of a shared content in bytes")
	flags.UintVar(&config.Settings.BodyLimit, "bodylimit", app.DefaultBodyLimit, "Maximum size of a request body in bytes")
	flags.IntVar(&config.Settings.PageSize, "pagesize", contentService.DefaultPageSize, "Contents per page")
	flags.BoolVar(&config.Settings.QR, "qr", true, "Print a QR code of the share URL on start")

	flags.StringVar(&config.Log.Level, "log-level", "info", "Log level (one of debug info warn error)")

	bind(flags.Lookup("listen"), "listen")
	bind(flags.Lookup("type"), "database.type")
	bind(flags.Lookup("uri"), "database.uri")
	bind(flags.Lookup("limit"), "settings.limit")
	bind(flags.Lookup("bodylimit"), "settings.bodylimit")
	bind(flags.Lookup("pagesize"), "settings.pagesize")
	bind(flags.Lookup("qr"), "settings.qr")
	bind(flags.Lookup("log-level"), "log.level")

	viper.SetEnvPrefix("simpleshare")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	cobra.OnInitialize(func() {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")

			viper.AddConfigPath(".")
			viper.AddConfigPath("$HOME/.config/simpleshare")
			viper.AddConfigPath("/etc/simpleshare")
		}

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				panic(err)
			}
		}

		if err := viper.Unmarshal(&config); err != nil {
			panic(err)
		}
	})
}

func bind(flag *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "simpleshare",
	Short: "Share files and text with everyone on the local network",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(config.Log.Level)
		if err != nil {
			return err
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		db, err := database.Open(database.Options{
			Type:    config.Database.Type,
			URI:     config.Database.URI,
			Verbose: level == slog.LevelDebug,
		})
		if err != nil {
			return err
		}

		cr, err := contentRepository.New(db)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		// contents never outlive the process
		if err := cr.Reset(ctx); err != nil {
			return err
		}

		cs := contentService.New(cr, contentService.Options{
			Limit:    config.Settings.Limit,
			PageSize: config.Settings.PageSize,
		})

		m := metrics.New()

		cc := contentController.New(cs, view.New(), m)

		a := app.New(cc, m, app.Options{
			BodyLimit: config.Settings.BodyLimit,
		})

		announce(config.Listen, config.Settings.QR)

		slog.Info("running on", "addr", config.Listen)
		if err := a.Listen(config.Listen, ctx); err != nil {
			return err
		}

		return nil
	},
}

func announce(listen string, qr bool) {
	ip, err := network.LocalIP()
	if err != nil {
		slog.Warn("local address not found, falling back to loopback", "err", err)
	}

	url, err := network.ShareURL(listen, ip)
	if err != nil {
		slog.Warn("cannot build share url", "err", err)
		return
	}

	slog.Info("share url", "url", url)

	if qr {
		fmt.Fprintf(os.Stdout, "\nScan to open %v\n", url)
		network.PrintQR(os.Stdout, url)
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("unknown log level: %v", s)
	}

	return level, nil
}

func Execute() error {
	return rootCmd.Execute()
}
