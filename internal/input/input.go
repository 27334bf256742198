package input

import (
	"errors"
	"log/slog"
	"time"

	"szuro.net/zts/internal/config"
	"szuro.net/zts/internal/journal"
	"szuro.net/zts/internal/logger"
	"szuro.net/zts/internal/observer"
)

// DEFAULT_DELAY is how long the daemon waits between readiness checks.
const DEFAULT_DELAY = 10 * time.Second

type Inputer interface {
	IsReady() bool
	Prepare() error
	Start()
	Stop() error
}

type baseInput struct {
	config  config.ZTSConf
	journal journal.Journal
	subject *Subject
}

func newBaseInput(conf config.ZTSConf, j journal.Journal) baseInput {
	return baseInput{
		config:  conf,
		journal: j,
		subject: NewSubject(conf.BufferSize),
	}
}

func (bs *baseInput) GetSubject() *Subject {
	return bs.subject
}

func (bs *baseInput) Prepare() error {
	bs.setFilter()
	return bs.setTargets()
}

func (bs *baseInput) Start() {
	bs.subject.Start()
}

func (bs *baseInput) Stop() error {
	bs.subject.Cleanup()
	return nil
}

func (bs *baseInput) setFilter() {
	tags := bs.config.TagFilter
	tags.Activate()
	bs.subject.SetFilter(&tags)
}

func (bs *baseInput) setTargets() error {
	var errs []error
	for _, ch := range bs.config.Channels {
		o, err := observer.New(ch, bs.journal)
		if err != nil {
			logger.Warn("Failed to register channel", slog.String("name", ch.Name), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		bs.subject.Register(o)
		logger.Info("Registered channel", slog.String("name", ch.Name), slog.String("type", ch.Type))
	}
	return errors.Join(errs...)
}
