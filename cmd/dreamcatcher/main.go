package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"dreamcatcher/internal/app"
)

var (
	dataDirFlag    string
	userFlag       string
	storeFlag      string
	logPathFlag    string
	logLevelFlag   string
	catalogDirFlag string
	rootCmd        = &cobra.Command{
		Use:           "dreamcatcher",
		Short:         "Dream journal with quests, streaks and achievements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&dataDirFlag, "data-dir", "d", "", "Directory holding the journal database")
	pf.StringVarP(&userFlag, "user", "u", "", "User whose journal to open")
	pf.StringVar(&storeFlag, "store", "", "Storage driver (sqlite or memory)")
	pf.StringVar(&logPathFlag, "log-path", "", "JSON log file (empty discards logs)")
	pf.StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&catalogDirFlag, "catalog-dir", "", "Directory with quests.yaml and achievements.yaml overrides")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Fail.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// loadConfig reads the environment and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return app.Config{}, err
	}
	flags := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("data-dir", &cfg.DataDir, dataDirFlag)
	override("user", &cfg.UserID, userFlag)
	override("store", &cfg.StoreDriver, storeFlag)
	override("log-path", &cfg.LogPath, logPathFlag)
	override("log-level", &cfg.LogLevel, logLevelFlag)
	override("catalog-dir", &cfg.CatalogDir, catalogDirFlag)
	return cfg, nil
}

// withApp opens the journal, runs fn and prints whatever notifications the
// operation produced before closing.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}

	runErr := fn(ctx, a)
	renderNotifications(cmd.OutOrStdout(), a.DrainNotifications())
	return closeAfter(runErr, a)
}

// closeAfter closes c and reports its error unless runErr already failed
// the command.
func closeAfter(runErr error, c io.Closer) error {
	closeErr := c.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("close journal: %w", closeErr)
	}
	return nil
}
