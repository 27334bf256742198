package input

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/nxadm/tail"

	"szuro.net/zts/internal/config"
	"szuro.net/zts/internal/journal"
	"szuro.net/zts/internal/logger"
)

// FileInput follows NDJSON alert files and remembers how far each was read.
type FileInput struct {
	baseInput
	activeTails []*tail.Tail
	fileIndex   *badger.DB
	readers     sync.WaitGroup
}

func NewFileInput(ztsConf config.ZTSConf, j journal.Journal) (fi *FileInput, err error) {
	fi = &FileInput{baseInput: newBaseInput(ztsConf, j)}

	if err = os.MkdirAll(ztsConf.WorkingDir, 0o750); err != nil {
		return nil, fmt.Errorf("cannot create working dir: %w", err)
	}

	dbPath := path.Join(ztsConf.WorkingDir, "index.db")
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(logger.Default()))
	if err != nil {
		logger.Error("Failed to open BadgerDB for file index", slog.Any("error", err))
		return nil, fmt.Errorf("cannot open file index: %w", err)
	}
	logger.Debug("Initialized BadgerDB for file index", slog.String("path", dbPath))
	fi.fileIndex = db

	return
}

// IsReady reports whether every alert file exists.
func (fi *FileInput) IsReady() bool {
	for _, p := range fi.config.FileInput.Paths {
		if _, err := os.Stat(p); err != nil {
			logger.Debug("Alert file not available yet", slog.String("file", p), slog.Any("error", err))
			return false
		}
	}
	return true
}

func (fi *FileInput) Prepare() error {
	return fi.baseInput.Prepare()
}

func (fi *FileInput) Start() {
	fi.baseInput.Start()
	for _, filename := range fi.config.FileInput.Paths {
		t, err := fi.follow(filename)
		if err != nil {
			logger.Error("Could not open alert file", slog.String("file", filename), slog.Any("error", err))
			continue
		}
		fi.activeTails = append(fi.activeTails, t)
	}
}

func (fi *FileInput) follow(filename string) (*tail.Tail, error) {
	loc, _ := findLastReadOffset(fi.fileIndex, filename)

	t, err := tail.TailFile(
		filename, tail.Config{
			Follow:        true,
			ReOpen:        true,
			CompleteLines: true,
			Location:      loc,
			Logger:        logger.Default(),
		})
	if err != nil {
		return nil, err
	}

	fi.readers.Add(1)
	go func() {
		defer fi.readers.Done()
		logger.Info("Opening and parsing alert file", slog.String("file", filename), slog.Int64("offset", loc.Offset))

		for line := range t.Lines {
			a, err := parseAlertLine(line)
			linesParsed.WithLabelValues(filename).Inc()
			if err != nil {
				linesInvalid.WithLabelValues(filename).Inc()
				logger.Error("Failed to parse line", slog.String("file", filename), slog.Int("line_number", line.Num), slog.Any("error", err))
				continue
			}
			fi.subject.Funnel <- a
		}
	}()
	return t, nil
}

func (fi *FileInput) Stop() error {
	for _, f := range fi.activeTails {
		offset, err := f.Tell()
		if err != nil {
			logger.Error("cannot get file offset, resetting to 0", slog.String("file", f.Filename), slog.Any("error", err))
			offset = 0
		}
		f.Stop()
		f.Cleanup()

		if err = saveOffset(fi.fileIndex, f.Filename, offset); err != nil {
			logger.Error("error when saving file offset", slog.String("file", f.Filename), slog.Any("error", err))
		}
	}
	fi.readers.Wait()
	fi.activeTails = nil

	err := fi.baseInput.Stop()
	if cerr := fi.fileIndex.Close(); cerr != nil {
		logger.Error("error when closing file index", slog.Any("error", cerr))
	}
	return err
}
