package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	cli "github.com/jawher/mow.cli"
	"golang.org/x/sync/errgroup"

	"github.com/geniass/salewatch/pkg/notify"
	"github.com/geniass/salewatch/pkg/store"
	"github.com/geniass/salewatch/pkg/tracker"
	"github.com/geniass/salewatch/pkg/web"
)

func cmdServe(cmd *cli.Cmd) {
	addr := cmd.StringOpt("a addr", "", "listen address (overrides api-addr)")

	cmd.Action = func() {
		e, err := newEnv()
		if err != nil {
			fatal("startup failed", err)
		}
		defer e.Close()

		if *addr == "" {
			*addr = cfg.APIAddr
		}
		if err := e.tracker.RefreshBadge(); err != nil {
			logger.Warn("badge refresh failed", "error", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := web.NewServer(*addr, e.store, e.tracker, e.badge, baseContext(""), logger)
		if err := srv.Start(); err != nil {
			fatal("starting http server", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			e.tracker.Run(gctx, tracker.ScheduleConfig{
				Interval:   cfg.CheckInterval,
				FirstDelay: cfg.FirstCheckDelay,
			})
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return srv.Stop()
		})

		logger.Info("salewatch running", "db", cfg.DBPath, "config", cfg.ConfigPath)
		if err := g.Wait(); err != nil {
			fatal("shutdown failed", err)
		}
		logger.Info("salewatch stopped")
	}
}

func cmdScan(cmd *cli.Cmd) {
	cmd.Action = func() {
		e, err := newEnv()
		if err != nil {
			fatal("startup failed", err)
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := e.tracker.Scan(ctx)
		if err != nil {
			fatal("scan failed", err)
		}
		summary, err := e.tracker.Summary()
		if err != nil {
			fatal("reading summary", err)
		}
		if err := writeReport(os.Stdout, &res, summary); err != nil {
			fatal("writing report", err)
		}
	}
}

func cmdSummary(cmd *cli.Cmd) {
	cmd.Action = func() {
		st, err := openStore()
		if err != nil {
			fatal("startup failed", err)
		}
		defer st.Close()

		folders, err := st.Snapshot()
		if err != nil {
			fatal("reading store", err)
		}
		if err := writeReport(os.Stdout, nil, tracker.Summarize(folders)); err != nil {
			fatal("writing report", err)
		}
	}
}

func cmdAdd(cmd *cli.Cmd) {
	cmd.Spec = "[-t] FOLDER URL"
	title := cmd.StringOpt("t title", "", "product title to show instead of the link")
	folder := cmd.StringArg("FOLDER", "", "folder to save into (created when missing)")
	url := cmd.StringArg("URL", "", "product page link")

	cmd.Action = func() {
		e, err := newEnv()
		if err != nil {
			fatal("startup failed", err)
		}
		defer e.Close()

		it, err := e.store.AddItem(*folder, *url, *title, time.Now())
		if err != nil {
			fatal("adding item", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout+5*time.Second)
		defer cancel()
		primed, err := e.tracker.EnsureBaseline(ctx, []string{it.URL})
		if err != nil {
			logger.Warn("baseline priming failed", "url", it.URL, "error", err)
		}

		if primed == 0 {
			fmt.Printf("saved %s in %q (no price yet, the next scan will retry)\n", it.URL, *folder)
			return
		}
		folders, err := e.store.Snapshot()
		if err != nil {
			fatal("reading store", err)
		}
		if i := folders.Find(*folder, it.URL); i >= 0 {
			it = folders[*folder][i]
		}
		fmt.Printf("saved %s in %q at %s\n", it.URL, *folder, formatPrice(it.BaselinePrice))
	}
}

func cmdFolders(cmd *cli.Cmd) {
	cmd.Action = func() {
		st, err := openStore()
		if err != nil {
			fatal("startup failed", err)
		}
		defer st.Close()

		folders, err := st.Snapshot()
		if err != nil {
			fatal("reading store", err)
		}
		if err := foldersTemplate.Execute(os.Stdout, web.NewFoldersContext(baseContext(""), folders)); err != nil {
			fatal("writing folders", err)
		}
	}
}

func cmdFolderCreate(cmd *cli.Cmd) {
	name := cmd.StringArg("NAME", "", "folder name")

	cmd.Action = func() {
		st, err := openStore()
		if err != nil {
			fatal("startup failed", err)
		}
		defer st.Close()

		created, err := st.CreateFolder(*name)
		if err != nil {
			fatal("creating folder", err)
		}
		fmt.Printf("created folder %q\n", created)
	}
}

func cmdFolderRemove(cmd *cli.Cmd) {
	name := cmd.StringArg("NAME", "", "folder name")

	cmd.Action = func() {
		st, err := openStore()
		if err != nil {
			fatal("startup failed", err)
		}
		defer st.Close()

		if err := st.DeleteFolder(*name); err != nil {
			fatal("deleting folder", err)
		}
		fmt.Printf("deleted folder %q\n", *name)
	}
}

func cmdExport(cmd *cli.Cmd) {
	cmd.Spec = "[FILE]"
	file := cmd.StringArg("FILE", "", "file to write (default stdout)")

	cmd.Action = func() {
		st, err := openStore()
		if err != nil {
			fatal("startup failed", err)
		}
		defer st.Close()

		var w io.Writer = os.Stdout
		if *file != "" {
			f, err := os.Create(*file)
			if err != nil {
				fatal("creating export file", err)
			}
			defer f.Close()
			w = f
		}
		if err := st.Export(w); err != nil {
			fatal("exporting", err)
		}
	}
}

func cmdImport(cmd *cli.Cmd) {
	file := cmd.StringArg("FILE", "", "file previously written by export")

	cmd.Action = func() {
		st, err := openStore()
		if err != nil {
			fatal("startup failed", err)
		}
		defer st.Close()

		f, err := os.Open(*file)
		if err != nil {
			fatal("opening import file", err)
		}
		defer f.Close()

		folders, err := st.Import(f)
		if errors.Is(err, store.ErrCorruptState) {
			fatal("import rejected, store left unchanged", err)
		}
		if err != nil {
			fatal("importing", err)
		}
		fmt.Printf("imported %d folders\n", len(folders))
	}
}

func cmdRender(cmd *cli.Cmd) {
	outputDir := cmd.StringOpt("o output-dir", "docs", "directory to write rendered HTML to")
	pathPrefix := cmd.StringOpt("path-prefix", "", "prefix page link URLs (in case pages are hosted at a subpath); should start with '/'")

	cmd.Action = func() {
		st, err := openStore()
		if err != nil {
			fatal("startup failed", err)
		}
		defer st.Close()

		folders, err := st.Snapshot()
		if err != nil {
			fatal("reading store", err)
		}
		if err := os.MkdirAll(*outputDir, os.ModeDir|0775); err != nil {
			fatal("creating output dir", err)
		}

		base := baseContext(*pathPrefix)
		summary := tracker.Summarize(folders)
		err = renderToFile(*outputDir, "index.html", func(w io.Writer) error {
			return web.RenderSummary(w, web.SummaryContext{
				BaseContext: base,
				Title:       "On sale",
				LastUpdated: time.Now(),
				BadgeText:   notify.BadgeText(summary.Count),
				Summary:     summary,
			})
		})
		if err != nil {
			fatal("rendering summary", err)
		}

		// the summary page links to /folders, so it gets its own directory
		if err := os.MkdirAll(filepath.Join(*outputDir, "folders"), os.ModeDir|0775); err != nil {
			fatal("creating output dir", err)
		}
		err = renderToFile(*outputDir, filepath.Join("folders", "index.html"), func(w io.Writer) error {
			return web.RenderFolders(w, web.NewFoldersContext(base, folders))
		})
		if err != nil {
			fatal("rendering folders", err)
		}
		logger.Info("rendered pages", "dir", *outputDir, "on_sale", summary.Count)
	}
}

func renderToFile(dir string, filename string, renderFunc func(w io.Writer) error) error {
	f, err := os.Create(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := renderFunc(f); err != nil {
		return err
	}
	return nil
}
