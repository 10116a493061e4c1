package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/handpet/internal/app"
	"github.com/ayusman/handpet/internal/config"
	"github.com/ayusman/handpet/internal/plugin"
	"github.com/ayusman/handpet/internal/server"
	"github.com/ayusman/handpet/internal/store"
	"github.com/ayusman/handpet/internal/tray"
)

func main() {
	configPath := flag.String("config", filepath.Join(config.DataDir(), "config.toml"), "path to a .toml, .yaml or .json config file")
	addr := flag.String("addr", "", "listen address (overrides the config file)")
	withTray := flag.Bool("tray", false, "show the system tray menu")
	initConfig := flag.Bool("init", false, "write the default config to -config and exit")
	flag.Parse()

	fmt.Println("Handpet - Hand-Tracked Virtual Pet")

	if *initConfig {
		if err := config.Save(config.DefaultConfig(), *configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Wrote default config to %s\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	// Initialize the store
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	pet := app.New(cfg.App())

	var hooks *plugin.Dispatcher
	plugins := plugin.NewManager(cfg.Plugins.Dir)
	if err := plugins.Discover(); err != nil {
		log.Printf("Plugin discovery failed: %v", err)
	} else if n := len(plugins.List()); n > 0 {
		fmt.Printf("Loaded %d plugins from %s\n", n, cfg.Plugins.Dir)
		hooks = plugin.NewDispatcher(plugins, plugin.NewExecutor(cfg.Plugins.TimeoutMS), plugin.DefaultQueueSize)
		defer hooks.Close()
		pet.Subscribe(hooks)
	}

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       pet,
		Tuning:    cfg.Tuning,
		Plugins:   hooks,
	})
	if err := srv.Tuning().Restore(); err != nil {
		log.Printf("Ignoring saved tuning: %v", err)
	}

	if w, err := config.Watch(*configPath); err != nil {
		log.Printf("Config hot reload disabled: %v", err)
	} else {
		defer w.Close()
		w.OnChange(func(c *config.Config) {
			srv.Tuning().SetBase(c.Tuning)
			pet.ApplyTuning(c.Tuning.Interaction())
			// Tuning saved through the API still wins over the file.
			if err := srv.Tuning().Restore(); err != nil {
				log.Printf("Ignoring saved tuning: %v", err)
			}
		})
	}

	if err := pet.Start(); err != nil {
		log.Printf("Camera unavailable, running without detection: %v", err)
	}
	defer pet.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv}
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if *withTray || cfg.Tray.Enabled {
		runTray(ctx, stop, pet, browserURL(cfg.Server.Addr))
	} else {
		<-ctx.Done()
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}

// runTray blocks on the tray menu until Quit is chosen or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, pet *app.App, url string) {
	tr := tray.New()
	pet.Subscribe(tr)
	tr.OnToggle(pet.SetEnabled)
	tr.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open browser: %v", err)
		}
	})
	tr.OnQuit(stop)

	go func() {
		<-ctx.Done()
		tr.Quit()
	}()
	tr.Run()
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.handpet/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
