// Package pipeline runs a full report: read every input workbook,
// aggregate each track, reconcile them and assemble the roster report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nconklindev/rollup/internal/aggregate"
	"github.com/nconklindev/rollup/internal/aptitude"
	"github.com/nconklindev/rollup/internal/logging"
	"github.com/nconklindev/rollup/internal/reconcile"
	"github.com/nconklindev/rollup/internal/roster"
	"github.com/nconklindev/rollup/internal/sheet"
	"github.com/nconklindev/rollup/internal/types"
)

// File roles reported in FileError.
const (
	RoleRoster   = "roster"
	RoleTrack    = "track"
	RoleAptitude = "aptitude"
)

var (
	ErrNoRoster = errors.New("no roster file given")
	ErrNoTracks = errors.New("no track files given")
)

// FileError ties a read failure to the input file that caused it.
type FileError struct {
	Role string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s file %s: %v", e.Role, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Request names the files for one attendance run.
type Request struct {
	Department string
	Roster     string
	Tracks     []string
}

// Pipeline holds the settings shared by every run.
type Pipeline struct {
	Reader         sheet.Options
	ThresholdRatio float64
	Logger         *slog.Logger
}

// New returns a Pipeline. A nil logger discards output.
func New(reader sheet.Options, ratio float64, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}
	if ratio <= 0 {
		ratio = aggregate.DefaultThresholdRatio
	}
	return &Pipeline{Reader: reader, ThresholdRatio: ratio, Logger: logger}
}

// progress reports completed steps as a fraction without ever blocking.
type progress struct {
	ch    chan<- float64
	done  atomic.Int64
	total int64
}

func (p *progress) step() {
	n := p.done.Add(1)
	if p.ch == nil || p.total == 0 {
		return
	}
	select {
	case p.ch <- float64(n) / float64(p.total):
	default:
	}
}

// Run reads the roster and every track concurrently. Any read failure
// cancels the rest and returns a *FileError; no partial result is produced.
func (p *Pipeline) Run(ctx context.Context, req Request, progressChan chan<- float64) (*types.RunResult, error) {
	if req.Roster == "" {
		return nil, ErrNoRoster
	}
	if len(req.Tracks) == 0 {
		return nil, ErrNoTracks
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	p.Logger.InfoContext(ctx, "run started",
		slog.String("department", req.Department),
		slog.String("roster", req.Roster),
		slog.Int("tracks", len(req.Tracks)))

	prog := &progress{ch: progressChan, total: int64(len(req.Tracks) + 2)}
	agg := aggregate.New(p.ThresholdRatio, p.Logger)

	var entries []types.RosterEntry
	sources := make([]types.Source, len(req.Tracks))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e, err := p.readRoster(gctx, req.Roster)
		if err != nil {
			return &FileError{Role: RoleRoster, Path: req.Roster, Err: err}
		}
		entries = e
		prog.step()
		return nil
	})

	for i, path := range req.Tracks {
		g.Go(func() error {
			src, err := p.readTrack(gctx, agg, path)
			if err != nil {
				return &FileError{Role: RoleTrack, Path: path, Err: err}
			}
			sources[i] = src
			prog.step()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.Logger.ErrorContext(ctx, "run failed", slog.String("error", err.Error()))
		return nil, err
	}

	rec := reconcile.New(sources...)
	records := roster.Assemble(entries, rec)
	sessions, tests := rec.Totals()
	students := len(rec.Merge())
	prog.step()

	p.Logger.InfoContext(ctx, "run finished",
		slog.Int("records", len(records)),
		slog.Int("students", students),
		slog.Int("total_sessions", sessions),
		slog.Int("total_tests", tests))

	return &types.RunResult{
		RunID:         runID,
		Department:    req.Department,
		RosterFile:    req.Roster,
		TrackFiles:    append([]string(nil), req.Tracks...),
		Records:       records,
		Students:      students,
		TotalSessions: sessions,
		TotalTests:    tests,
	}, nil
}

func (p *Pipeline) readRoster(ctx context.Context, path string) ([]types.RosterEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wb, err := sheet.Open(path, p.Reader)
	if err != nil {
		return nil, err
	}
	t, err := wb.First()
	if err != nil {
		return nil, err
	}
	entries := roster.Read(t)
	p.Logger.DebugContext(ctx, "roster read",
		slog.String("sheet", t.Sheet),
		slog.Int("entries", len(entries)))
	return entries, nil
}

func (p *Pipeline) readTrack(ctx context.Context, agg *aggregate.Aggregator, path string) (types.Source, error) {
	if err := ctx.Err(); err != nil {
		return types.Source{}, err
	}
	wb, err := sheet.Open(path, p.Reader)
	if err != nil {
		return types.Source{}, err
	}
	return agg.FromWorkbook(ctx, wb)
}

// RunAptitude builds the aptitude report from a single workbook.
func (p *Pipeline) RunAptitude(ctx context.Context, path string, progressChan chan<- float64) ([]types.AptitudeRecord, error) {
	ctx = logging.WithRunID(ctx, uuid.NewString())
	prog := &progress{ch: progressChan, total: 2}

	wb, err := sheet.Open(path, p.Reader)
	if err != nil {
		return nil, &FileError{Role: RoleAptitude, Path: path, Err: err}
	}
	t, err := wb.First()
	if err != nil {
		return nil, &FileError{Role: RoleAptitude, Path: path, Err: err}
	}
	prog.step()

	records := aptitude.Report(t)
	prog.step()

	p.Logger.InfoContext(ctx, "aptitude report built",
		slog.String("file", path),
		slog.Int("records", len(records)))
	return records, nil
}
