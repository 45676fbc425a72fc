package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parsererror"

	"golang.org/x/sync/errgroup"
)

// Loader opens sources and runs the matching parser.
type Loader struct {
	factory *Factory
	logger  logging.Logger
}

// NewLoader creates a loader.
func NewLoader(opts Options, logger logging.Logger) *Loader {
	logger = logging.OrDefault(logger)
	return &Loader{factory: NewFactory(opts, logger), logger: logger}
}

// ResolveKind returns the kind of src, derived from the file extension when unset.
func ResolveKind(src models.Source) (models.SourceKind, error) {
	if src.Kind != "" {
		return src.Kind, nil
	}
	kind, ok := models.KindFromPath(src.Path)
	if !ok {
		return "", &parsererror.InvalidFormatError{
			FilePath:       src.Path,
			ExpectedFormat: ".csv, .txt, .xlsx, .xlsm or .json",
			Msg:            "unrecognised file extension",
		}
	}
	return kind, nil
}

// Load parses one source.
func (l *Loader) Load(ctx context.Context, src models.Source) (*LoadResult, error) {
	start := time.Now()
	kind, err := ResolveKind(src)
	if err != nil {
		return nil, err
	}
	p, err := l.factory.GetParser(kind)
	if err != nil {
		return nil, attachPath(err, src.Path)
	}

	info, err := os.Stat(src.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &parsererror.NotFoundError{FilePath: src.Path, Err: err}
		}
		return nil, fmt.Errorf("error accessing %s: %w", src.Path, err)
	}
	if info.IsDir() {
		return nil, &parsererror.InvalidFormatError{FilePath: src.Path, ExpectedFormat: "a file", Msg: "path is a directory"}
	}

	file, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", src.Path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			l.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	logger := l.logger.WithFields(
		logging.Field{Key: logging.FieldFile, Value: src.Path},
		logging.Field{Key: logging.FieldSourceKind, Value: string(kind)})
	logger.Debug("Loading source")

	result, err := p.Parse(ctx, file)
	if err != nil {
		err = attachPath(err, src.Path)
		logger.WithError(err).Warn("Failed to load source")
		return nil, err
	}
	result.Diagnostics.Source = src.Path
	result.Diagnostics.Kind = kind

	logger.Info("Loaded source",
		logging.Field{Key: logging.FieldCount, Value: len(result.Transactions)},
		logging.Field{Key: logging.FieldSkipped, Value: result.Diagnostics.Skipped},
		logging.Field{Key: logging.FieldDurationMS, Value: time.Since(start).Milliseconds()})
	return result, nil
}

// LoadAll parses sources concurrently. Results are concatenated in argument
// order; source row indexes stay relative to their own source. Mapping tables
// of exchange documents are merged in argument order, later documents winning.
// The first failure cancels the remaining loads.
func (l *Loader) LoadAll(ctx context.Context, sources []models.Source) (*LoadResult, error) {
	if len(sources) == 0 {
		return nil, &parsererror.ValidationError{Field: "sources", Value: "", Reason: "at least one source is required"}
	}

	results := make([]*LoadResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			res, err := l.Load(gctx, src)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := &LoadResult{}
	paths := make([]string, 0, len(results))
	for _, res := range results {
		combined.Transactions = append(combined.Transactions, res.Transactions...)
		combined.Diagnostics.Merge(res.Diagnostics)
		combined.Sources = append(combined.Sources, res.Diagnostics)
		paths = append(paths, res.Diagnostics.Source)
		if res.Mapping != nil {
			if combined.Mapping == nil {
				combined.Mapping = mapping.NewTable()
			}
			if err := combined.Mapping.Merge(res.Mapping.Export()); err != nil {
				return nil, err
			}
		}
	}
	combined.Diagnostics.Source = strings.Join(paths, ", ")
	if len(results) == 1 {
		combined.Diagnostics = results[0].Diagnostics
	}
	return combined, nil
}

// attachPath fills in the file path of typed errors raised by reader-level parsers.
func attachPath(err error, path string) error {
	var invalid *parsererror.InvalidFormatError
	if errors.As(err, &invalid) && invalid.FilePath == "" {
		invalid.FilePath = path
	}
	var empty *parsererror.EmptyResultError
	if errors.As(err, &empty) && empty.FilePath == "" {
		empty.FilePath = path
	}
	var corrupt *parsererror.CorruptDocumentError
	if errors.As(err, &corrupt) && corrupt.FilePath == "" {
		corrupt.FilePath = path
	}
	return err
}
