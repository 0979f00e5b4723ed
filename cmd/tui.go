package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"firestige.xyz/nlyzer/internal/capture"
	"firestige.xyz/nlyzer/internal/config"
	"firestige.xyz/nlyzer/internal/log"
	"firestige.xyz/nlyzer/internal/metrics"
	"firestige.xyz/nlyzer/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal UI (s scan, x stop, q quit)",
	Long: `Start the interactive terminal UI. Press s to list devices and start a scan,
x to stop it and q to quit. Accepted frames are shown as summary lines.

Log output goes to the configured log file only while the UI is running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := log.InitTo(cfg.Log, nil); err != nil {
			return err
		}
		defer log.Close()

		ctx := cmd.Context()
		if cfg.Metrics.Enabled {
			srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer srv.Stop(context.Background())
		}

		opts, err := tuiOptions(cfg)
		if err != nil {
			return err
		}
		m := tui.New(ctx, opts)
		final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		finalModel(final, m).Close()
		return err
	},
}

// finalModel returns the model the program ended with. Update works on
// copies, so only that one holds the cancellation of a running scan.
func finalModel(final tea.Model, initial tui.Model) tui.Model {
	if fm, ok := final.(tui.Model); ok {
		return fm
	}
	return initial
}

func tuiOptions(cfg *config.Config) (tui.Options, error) {
	engine, err := capture.ParseEngine(cfg.Capture.Engine)
	if err != nil {
		return tui.Options{}, err
	}
	opener, err := capture.NewOpener(engine)
	if err != nil {
		return tui.Options{}, err
	}
	return tui.Options{
		Lister:           capture.PcapLister{},
		Opener:           opener,
		Open:             capture.OpenOptionsFromConfig(cfg.Capture),
		LoadPredicate:    predicateLoader(cfg.Filter),
		SelectionTimeout: cfg.Selection.Timeout,
		Buffer:           cfg.Output.Buffer,
	}, nil
}
