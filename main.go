package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ytget/media-downloader/internal/collect"
	"github.com/ytget/media-downloader/internal/config"
	"github.com/ytget/media-downloader/internal/download"
	"github.com/ytget/media-downloader/internal/event"
	"github.com/ytget/media-downloader/internal/extractor"
	"github.com/ytget/media-downloader/internal/model"
	"github.com/ytget/media-downloader/internal/platform"
	"github.com/ytget/media-downloader/internal/state"
	"github.com/ytget/media-downloader/internal/validate"
	"github.com/ytget/media-downloader/internal/worker"
	"github.com/ytget/media-downloader/pkg/logger"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const appName = "Media Downloader"

// How long a Ctrl-C waits for the in-flight item before giving up
const stopDrainTimeout = 10 * time.Second

const sessionFilename = ".media-downloader-session.json"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	urls := flag.String("urls", "", "comma-separated video URLs")
	urlsFile := flag.String("urls-file", "", "file with one URL per line")
	profileURL := flag.String("profile", "", "profile or channel URL to enumerate")
	maxItems := flag.Int("max", 0, "maximum videos to take from a profile")
	saveDir := flag.String("dir", "", "save directory (default: ~/Downloads)")
	format := flag.Int("format", -1, "filename format: 0 index_title, 1 video id, 2 index_title_id, 3 title")
	delay := flag.Duration("delay", 0, "pause between downloads")
	flag.Parse()

	fmt.Printf("%s v%s\n", appName, version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if *saveDir != "" {
		cfg.Download.SaveDirectory = *saveDir
	}
	if *format >= 0 {
		cfg.Download.FilenameFormat = *format
	}
	if *delay > 0 {
		cfg.Download.RateLimitDelay = *delay
	}
	if *maxItems > 0 {
		cfg.Download.MaxVideos = *maxItems
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	inputs, err := gatherURLs(*urls, *urlsFile)
	if err != nil {
		return err
	}
	if len(inputs) == 0 && *profileURL == "" {
		flag.Usage()
		return fmt.Errorf("nothing to do: pass -urls, -urls-file or -profile")
	}
	if len(inputs) > 0 && *profileURL != "" {
		return fmt.Errorf("use either -profile or URL inputs, not both")
	}

	dir := cfg.Download.SaveDirectory
	if dir == "" {
		if dir, err = platform.HomeDownloadsDir(); err != nil {
			return err
		}
	}
	if err := platform.EnsureDir(dir); err != nil {
		return fmt.Errorf("could not prepare save directory: %w", err)
	}

	if ok, freeMB := validate.CheckDiskSpace(dir, cfg.Download.RequiredFreeMB); !ok {
		return fmt.Errorf("not enough disk space: %d MB free, %d MB required", freeMB, cfg.Download.RequiredFreeMB)
	} else if freeMB == 0 {
		log.Debug("disk space check inconclusive, continuing", zap.String("dir", dir))
	} else {
		fmt.Printf("Disk space: %d MB free\n", freeMB)
	}

	statePath := cfg.State.File
	if statePath == "" {
		statePath = filepath.Join(dir, sessionFilename)
	}

	ex := extractor.NewYTDLP(log)
	store := state.NewStore(statePath, log)
	sink := event.SinkFunc(printEvent)

	var runErr error
	runner := worker.NewRunner()
	runner.Start(func(ctx context.Context) {
		runErr = runBatch(ctx, cfg, dir, inputs, *profileURL, ex, sink, store, log)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nStopping...")
		if !runner.Stop(stopDrainTimeout) {
			log.Warn("job did not drain before timeout")
		}
	}()

	runner.Wait()
	signal.Stop(sigCh)
	return runErr
}

// runBatch collects records for the requested inputs, then downloads them
// and persists the session snapshot.
func runBatch(ctx context.Context, cfg *config.Config, dir string, inputs []string, profileURL string,
	ex *extractor.YTDLP, sink event.Sink, store *state.Store, log *zap.Logger) error {

	var records []model.VideoRecord
	var err error
	if profileURL != "" {
		pc := collect.NewProfileCollector(ex, nil, sink, log)
		records, err = pc.Collect(ctx, profileURL, cfg.Download.MaxVideos)
	} else {
		mc := collect.NewMetadataCollector(ex, sink, log)
		records, err = mc.Collect(ctx, inputs)
	}
	if err != nil {
		return err
	}

	if saveErr := store.Save(state.Session{Videos: records}); saveErr != nil {
		log.Warn("could not persist session", zap.Error(saveErr))
	}

	// track successful ids for the session snapshot
	var downloaded []string
	capture := event.SinkFunc(func(e event.Event) {
		sink.Emit(e)
		if o, ok := e.(event.ItemOutcome); ok && o.Outcome.Success {
			downloaded = append(downloaded, o.Outcome.VideoID)
		}
	})

	svc := download.NewService(ex, capture, log)
	_, err = svc.Run(ctx, records, download.Options{
		SaveDir:        dir,
		Format:         model.FilenameFormat(cfg.Download.FilenameFormat),
		RateLimitDelay: cfg.Download.RateLimitDelay,
	})

	if saveErr := store.Save(state.Session{Videos: records, Downloaded: downloaded}); saveErr != nil {
		log.Warn("could not persist session", zap.Error(saveErr))
	}
	return err
}

// gatherURLs merges the -urls flag and the -urls-file contents
func gatherURLs(raw, file string) ([]string, error) {
	var urls []string
	for _, u := range strings.Split(raw, ",") {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("could not read URL file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			urls = append(urls, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	return urls, nil
}

// printEvent renders pipeline events on stdout
func printEvent(e event.Event) {
	switch ev := e.(type) {
	case event.Progress:
		if ev.VideoID != "" {
			fmt.Printf("\r  %3d%%", ev.Percent)
		}
	case event.StatusLine:
		fmt.Println(ev.Text)
	case event.ItemOutcome:
		marker := "ok"
		if !ev.Outcome.Success {
			marker = "failed"
		}
		fmt.Printf("\r  [%s] %s\n", marker, ev.Outcome.Message)
	case event.BatchFinished:
		s := ev.Summary
		fmt.Printf("Done: %d/%d succeeded, %d failed\n", s.Success, s.Total, s.Failed)
	}
}
