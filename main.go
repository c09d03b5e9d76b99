package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	stdnet "net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"DesignStudio/internal/assets"
	"DesignStudio/internal/config"
	"DesignStudio/internal/editor"
	"DesignStudio/internal/logging"
	"DesignStudio/internal/net"
	"DesignStudio/internal/render"
	"DesignStudio/internal/storage"
	"DesignStudio/internal/ui"
)

func main() {
	cfgPath := flag.String("config", "designstudio.toml", "path to a TOML or YAML config file")
	name := flag.String("name", "", "name of the new design")
	owner := flag.String("owner", "", "user id designs are saved under")
	headless := flag.Bool("headless", false, "serve the live preview without opening a window")
	discover := flag.Bool("discover", false, "list design streams on the local network and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.SetLogger(logging.New(cfg.Log.Level, os.Stderr))
	logger := logging.For("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *discover {
		err := net.Browse(ctx, 3*time.Second, func(s net.Stream) {
			fmt.Printf("%s\t%s\t%v\n", s.Host, net.StreamURL(s.Addr), s.Info)
		})
		if err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
		return
	}

	session, err := newSession(cfg, *name)
	if err != nil {
		log.Fatalf("Failed to start editor: %v", err)
	}
	defer session.Close()

	hub := net.NewHub(session)
	go hub.Run(ctx)
	stopWatch := session.Watch(hub.Notify)
	defer stopWatch()

	srv := &http.Server{Addr: cfg.Stream.Addr, Handler: hub.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("stream server stopped", "addr", cfg.Stream.Addr, "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if cfg.Stream.Advertise {
		if port, err := portOf(cfg.Stream.Addr); err != nil {
			logger.Warn("not advertising stream", "addr", cfg.Stream.Addr, "err", err)
		} else if mdnsServer, err := net.Advertise(session.Name(), port); err != nil {
			logger.Warn("not advertising stream", "err", err)
		} else {
			defer mdnsServer.Shutdown()
		}
	}

	shareLink := net.StreamURL(cfg.Stream.Addr)
	logger.Info("live preview ready", "url", shareLink)

	if *headless {
		<-ctx.Done()
		logger.Info("shutting down")
		return
	}
	ui.RunApp(session, ui.Options{
		Title:     "Design Studio",
		Owner:     *owner,
		ShareLink: shareLink,
		ExportDir: cfg.Export.Dir,
	})
}

func newSession(cfg config.Config, name string) (*editor.Session, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	store, err := storage.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("design store: %w", err)
	}
	opts := editor.Options{
		Config:   cfg,
		Name:     name,
		Renderer: renderer,
		Store:    store,
	}
	if cfg.Generator.Endpoint != "" {
		opts.Generator = assets.NewHTTPGenerator(cfg.Generator.Endpoint, cfg.Generator.Timeout)
	}
	return editor.New(opts), nil
}

func portOf(addr string) (int, error) {
	_, p, err := stdnet.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(p)
}
