package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	cli "github.com/jawher/mow.cli"
	"github.com/joho/godotenv"

	"github.com/geniass/salewatch/pkg/config"
	"github.com/geniass/salewatch/pkg/logging"
)

var (
	cfg       config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	app := cli.App("salewatch", "Watch saved product pages and report price drops")
	app.Version("v version", "salewatch 0.3.0")

	configPath := app.StringOpt("c config", "", "path to the config file (default ~/.config/salewatch/config.yml)")

	app.Before = func() {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			cli.Exit(1)
		}
		logger, logCloser, err = logging.Setup(cfg.Logging)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			cli.Exit(1)
		}
		slog.SetDefault(logger)
	}
	app.After = func() {
		if logCloser != nil {
			logCloser.Close()
		}
	}

	app.Command("serve", "run the scheduler and the local HTTP API", cmdServe)
	app.Command("scan", "check every saved item now", cmdScan)
	app.Command("summary", "print the items currently on sale", cmdSummary)
	app.Command("add", "save a product link into a folder", cmdAdd)
	app.Command("folders", "list folders and their items", cmdFolders)
	app.Command("folder", "manage folders", func(cmd *cli.Cmd) {
		cmd.Command("create", "create a folder", cmdFolderCreate)
		cmd.Command("rm", "delete a folder and its items", cmdFolderRemove)
	})
	app.Command("export", "write the whole store as JSON", cmdExport)
	app.Command("import", "replace the store with an exported JSON file", cmdImport)
	app.Command("render", "render the summary pages to static HTML", cmdRender)

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// fatal logs err and exits through mow.cli so After hooks still run.
func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	cli.Exit(1)
}
