package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/jessevdk/go-flags"
	_ "github.com/joho/godotenv/autoload"
	"nuclight.org/moderation-tg-bot/app/media"
	"nuclight.org/moderation-tg-bot/app/storage"
	e "nuclight.org/moderation-tg-bot/pkg/entities"
	"nuclight.org/moderation-tg-bot/pkg/logger"
)

var opts struct {
	DBPath   string `long:"db-path" env:"DB_PATH" default:"./db/moderation.sqlite" description:"path to the sqlite database file"`
	LogLevel string `long:"log-level" env:"LOG_LEVEL" default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`

	Import importCommand `command:"import" description:"import response clips from directories"`
	Export exportCommand `command:"export" description:"export stored response clips to a directory"`
}

type importCommand struct {
	AcceptDir  string `long:"accept-dir" env:"ACCEPT_POOL_DIR" description:"directory of accept clips"`
	DeclineDir string `long:"decline-dir" env:"DECLINE_POOL_DIR" description:"directory of decline clips"`
}

type exportCommand struct {
	OutputDir string `long:"output" env:"OUTPUT_DIR" default:"./pool" description:"output directory, one subdirectory per category"`
	Workers   int    `long:"workers" default:"4" description:"number of concurrent writers"`
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}

// open prepares the logger and the database for a command.
func open(ctx context.Context) (logger.Logger, *storage.SQLite, error) {
	level, err := logger.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewLogger(level)

	db, err := storage.NewSQLite(ctx, opts.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("creating sqlite3 database: %w", err)
	}

	return log, db, nil
}

func (c *importCommand) Execute(_ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log, db, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	dirs := []struct {
		category e.Category
		dir      string
	}{
		{e.CategoryAccept, c.AcceptDir},
		{e.CategoryDecline, c.DeclineDir},
	}

	for _, d := range dirs {
		if d.dir == "" {
			continue
		}

		res, err := media.LoadPool(ctx, db, d.dir, d.category)
		if err != nil {
			return fmt.Errorf("importing %s: %w", d.category, err)
		}

		log.Info("pool imported", "category", d.category, "dir", d.dir, "added", res.Added, "skipped", res.Skipped)
	}

	return nil
}

func (c *exportCommand) Execute(_ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log, db, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	res, err := c.export(ctx, log, db)

	log.Info("done",
		"exported", res.Exported,
		"skipped", res.Skipped,
		"failed", res.Failed,
	)

	return err
}

type clipSource interface {
	ListBlobs(ctx context.Context) ([]e.MediaInfo, error)
	GetBlob(ctx context.Context, name string, category e.Category) (e.MediaBlob, error)
}

type exportResult struct {
	Exported int64
	Skipped  int64
	Failed   int64
}

// export writes every stored clip to <output>/<category>/<name>. Files that
// already exist are left alone.
func (c *exportCommand) export(ctx context.Context, log logger.Logger, src clipSource) (exportResult, error) {
	var res exportResult

	if c.Workers <= 0 {
		return res, fmt.Errorf("workers number must be greater than 0")
	}

	infos, err := src.ListBlobs(ctx)
	if err != nil {
		return res, fmt.Errorf("listing clips: %w", err)
	}

	log.Info("clips to export", "count", len(infos))

	for _, category := range []e.Category{e.CategoryAccept, e.CategoryDecline} {
		if err := os.MkdirAll(filepath.Join(c.OutputDir, string(category)), 0755); err != nil {
			return res, fmt.Errorf("creating output directory: %w", err)
		}
	}

	var wg sync.WaitGroup

	tasks := make(chan e.MediaInfo, len(infos))
	for _, info := range infos {
		tasks <- info
	}
	close(tasks)

	for i := 0; i < c.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for info := range tasks {
				if ctx.Err() != nil {
					return
				}

				blob, err := src.GetBlob(ctx, info.Name, info.Category)
				if err != nil {
					log.Error("reading clip", "name", info.Name, "category", info.Category, "error", err)
					atomic.AddInt64(&res.Failed, 1)
					continue
				}

				name := blob.Name
				if filepath.Ext(name) == "" {
					name += getExtension(http.DetectContentType(blob.Data))
				}
				path := filepath.Join(c.OutputDir, string(blob.Category), filepath.Base(name))

				if _, err := os.Stat(path); err == nil {
					atomic.AddInt64(&res.Skipped, 1)
					continue
				}

				if err := os.WriteFile(path, blob.Data, 0644); err != nil {
					log.Error("writing clip", "path", path, "error", err)
					atomic.AddInt64(&res.Failed, 1)
					continue
				}

				atomic.AddInt64(&res.Exported, 1)
			}
		}()
	}

	wg.Wait()

	if res.Failed > 0 {
		return res, fmt.Errorf("%d clips failed to export", res.Failed)
	}

	return res, nil
}

func getExtension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	default:
		return ""
	}
}
