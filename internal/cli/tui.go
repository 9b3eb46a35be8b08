package cli

import (
	"flag"
	"fmt"

	"sessions-admin/internal/app"
	"sessions-admin/internal/tui"
	"sessions-admin/internal/utils"
)

func (r *runner) runTUI(args []string) int {
	fs := r.flagSet("tui")
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}

	cfg, err := resolveConfig(common)
	if err != nil {
		return r.fail(err)
	}
	// The alternate screen owns the terminal, so logs go to a file.
	logger, err := utils.NewFileLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return r.fail(fmt.Errorf("open log file: %w", err))
	}
	a, err := app.New(cfg, logger, app.Options{})
	if err != nil {
		return r.fail(err)
	}
	defer a.Close()

	if err := tui.Run(a); err != nil {
		return r.fail(err)
	}
	return 0
}

func exitCode(err error) int {
	if err == flag.ErrHelp {
		return 0
	}
	return 1
}
