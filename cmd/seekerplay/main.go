// Package main provides the seekerplay entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/seekerplay/seekerplay/internal/app/adapter"
	"github.com/seekerplay/seekerplay/internal/app/engine"
	_ "github.com/seekerplay/seekerplay/internal/app/engine/local"
	"github.com/seekerplay/seekerplay/internal/app/registry"
	"github.com/seekerplay/seekerplay/internal/app/state"
	"github.com/seekerplay/seekerplay/internal/infra/config"
	"github.com/seekerplay/seekerplay/internal/infra/logger"
	"github.com/seekerplay/seekerplay/internal/infra/store"
)

var (
	app        = kingpin.New("seekerplay", "seekerplay playlist manager")
	configPath = app.Flag("config", "Path to config file").Default("config/seekerplay.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	listPlaylistsCmd = app.Command("list-playlists", "List stored playlists and exit")

	createPlaylistCmd  = app.Command("create-playlist", "Create an empty playlist and exit")
	createPlaylistName = createPlaylistCmd.Arg("name", "Playlist name").Required().String()

	deletePlaylistCmd = app.Command("delete-playlist", "Delete a playlist and exit")
	deletePlaylistID  = deletePlaylistCmd.Arg("id", "Playlist ID").Required().String()

	showSettingsCmd = app.Command("show-settings", "Print current settings and exit")
)

func init() {
	app.Command("start", "Run the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger is configured from the config file, so it is not up yet.
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(buildLoggerConfig(cfg, *verbose, *logfile)); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	zlog.Debug().Msgf("Loaded config from %s", *configPath)

	switch command {
	case listPlaylistsCmd.FullCommand():
		err = withStore(cfg, listPlaylists)
	case createPlaylistCmd.FullCommand():
		err = withStore(cfg, func(ctx context.Context, s store.Store) error {
			return createPlaylist(ctx, s, *createPlaylistName)
		})
	case deletePlaylistCmd.FullCommand():
		err = withStore(cfg, func(ctx context.Context, s store.Store) error {
			return deletePlaylist(ctx, s, *deletePlaylistID)
		})
	case showSettingsCmd.FullCommand():
		err = withStore(cfg, showSettings)
	default:
		err = run(cfg)
	}

	if err != nil {
		zlog.Error().Msgf("Error: %v", err)
		os.Exit(1)
	}
}

// buildLoggerConfig derives the logger configuration from the loaded config,
// with command-line flags taking precedence.
func buildLoggerConfig(cfg *config.Config, verbose bool, logfile string) logger.Config {
	lc := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
	}
	if verbose {
		lc.Level = "debug"
	}
	if logfile != "" {
		lc.Output = logfile
	}
	return lc
}

// run executes the main player logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zlog.Info().Msgf("Opening storage: path=%s", cfg.Storage.Path)
	durable, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := durable.Close(); err != nil {
			zlog.Error().Msgf("Failed to close storage: %v", err)
		}
	}()

	reg := registry.New(registry.NewMP3Prober())
	defer reg.ReleaseAll()

	appStore := state.New(durable, reg)
	if err := appStore.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize application state: %w", err)
	}

	acquirer := adapter.NewAcquirer(appStore, reg)
	opts := acquirer.Options(ctx, nil, appStore.State().Settings.CurrentSkinURL)
	eng, err := engine.New(cfg.Engine.Type, cfg.Engine.Settings, opts)
	if err != nil {
		return fmt.Errorf("failed to create playback engine: %w", err)
	}

	ad := adapter.New(eng, acquirer,
		time.Duration(cfg.Engine.PollIntervalMs)*time.Millisecond)
	ad.Start(ctx)

	zlog.Info().Msgf("seekerplay started: engine=%s", cfg.Engine.Type)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	zlog.Info().Msg("Received shutdown signal...")

	if err := ad.Close(); err != nil {
		zlog.Error().Msgf("Failed to close playback engine: %v", err)
	}
	appStore.ClearLiveTracks()

	zlog.Info().Msg("seekerplay stopped")
	return nil
}

// withStore opens the durable store, runs fn, and closes the store.
func withStore(cfg *config.Config, fn func(context.Context, store.Store) error) error {
	durable, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer durable.Close()
	return fn(context.Background(), durable)
}

func listPlaylists(ctx context.Context, s store.Store) error {
	playlists, err := s.ListPlaylists(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		fmt.Println("No playlists found")
		return nil
	}
	for _, p := range playlists {
		fmt.Printf("%s  %-30s tracks=%d updated=%s\n",
			p.ID, p.Name, len(p.Tracks),
			time.UnixMilli(p.UpdatedAt).Format(time.RFC3339))
	}
	return nil
}

func createPlaylist(ctx context.Context, s store.Store, name string) error {
	p, err := s.CreatePlaylist(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("Created playlist: id=%s name=%s\n", p.ID, p.Name)
	return nil
}

func deletePlaylist(ctx context.Context, s store.Store, id string) error {
	if err := s.DeletePlaylist(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted playlist: id=%s\n", id)
	return nil
}

func showSettings(ctx context.Context, s store.Store) error {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Volume:        %d\n", settings.Volume)
	fmt.Printf("Shuffle:       %t\n", settings.Shuffle)
	fmt.Printf("Repeat:        %t\n", settings.Repeat)
	fmt.Printf("Skin URL:      %s\n", orNone(settings.CurrentSkinURL))
	fmt.Printf("Last playlist: %s\n", orNone(settings.LastPlaylistID))
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
