// Package batch renders one report per supported file of a directory.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fjacquet/bwa-report/internal/aggregator"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parser"
	"fjacquet/bwa-report/internal/parsererror"
	"fjacquet/bwa-report/internal/report"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of files processed at once.
const DefaultConcurrency = 4

// SourceLoader loads a single source.
type SourceLoader interface {
	Load(ctx context.Context, src models.Source) (*parser.LoadResult, error)
}

// Job describes one batch run.
type Job struct {
	InputDir  string
	OutputDir string
	Format    report.Format
	// Quarter zero renders all four quarters.
	Quarter int
	Policy  models.Policy
	Year    *int
	// Table classifies sources that carry no mapping table of their own.
	Table *mapping.Table
	// Template supplies title and organization of every report.
	Template report.Report
}

// Result is the outcome for one input file. Err is set when the file failed;
// other files are processed regardless.
type Result struct {
	Input        string
	Output       string
	Transactions int
	Range        models.DateRange
	Duplicates   int
	Err          error
}

// Processor runs batch jobs.
type Processor struct {
	loader      SourceLoader
	aggregator  *aggregator.Aggregator
	logger      logging.Logger
	concurrency int
}

// NewProcessor creates a Processor.
func NewProcessor(loader SourceLoader, agg *aggregator.Aggregator, logger logging.Logger) *Processor {
	logger = logging.OrDefault(logger)
	if agg == nil {
		agg = aggregator.New(logger)
	}
	return &Processor{loader: loader, aggregator: agg, logger: logger, concurrency: DefaultConcurrency}
}

// DiscoverFiles lists the files of dir with a supported extension, sorted by name.
func DiscoverFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &parsererror.NotFoundError{FilePath: dir, Err: err}
		}
		return nil, fmt.Errorf("error reading directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, ok := models.KindFromPath(e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run processes every supported file of job.InputDir. It fails only when the
// job itself is invalid; per-file failures are reported in the results.
func (p *Processor) Run(ctx context.Context, job Job) ([]Result, error) {
	renderer, err := report.NewRenderer(job.Format)
	if err != nil {
		return nil, err
	}
	if job.Quarter != 0 {
		if err := (aggregator.Request{Quarter: job.Quarter, Policy: job.Policy}).Validate(); err != nil {
			return nil, err
		}
	}
	files, err := DiscoverFiles(job.InputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &parsererror.EmptyResultError{FilePath: job.InputDir}
	}
	if err := os.MkdirAll(job.OutputDir, models.PermissionDirectory); err != nil {
		return nil, fmt.Errorf("error creating output directory: %w", err)
	}

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			results[i] = p.processFile(gctx, job, renderer, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	p.logger.Info("Batch finished",
		logging.Field{Key: logging.FieldCount, Value: len(results) - failed},
		logging.Field{Key: logging.FieldSkipped, Value: failed})
	return results, nil
}

func (p *Processor) processFile(ctx context.Context, job Job, renderer report.Renderer, file string) Result {
	res := Result{Input: file}
	logger := p.logger.WithField(logging.FieldInputFile, filepath.Base(file))

	loaded, err := p.loader.Load(ctx, models.Source{Path: file})
	if err != nil {
		logger.WithError(err).Error("Failed to load file")
		res.Err = err
		return res
	}
	res.Transactions = len(loaded.Transactions)
	res.Range = CalculateDateRange(loaded.Transactions)
	res.Duplicates = p.detectAndLogDuplicates(loaded.Transactions, file)

	table := job.Table
	if loaded.Mapping != nil {
		table = loaded.Mapping
	}
	summaries, err := p.aggregator.Summaries(loaded.Transactions, table, job.Quarter, job.Policy, job.Year)
	if err != nil {
		res.Err = err
		return res
	}

	rep := job.Template
	rep.Policy = job.Policy
	if job.Year != nil {
		rep.Year = *job.Year
	}
	rep.Periods = summaries
	rep.Sources = []string{filepath.Base(file)}

	res.Output = filepath.Join(job.OutputDir, OutputFilename(file, res.Range, job.Format))
	if err := report.WriteFile(res.Output, renderer, rep, logger); err != nil {
		res.Err = err
	}
	return res
}

// CalculateDateRange returns the span of the dated transactions; zero when none is dated.
func CalculateDateRange(transactions []models.Transaction) models.DateRange {
	var rng models.DateRange
	for _, tx := range transactions {
		if !tx.HasDate() {
			continue
		}
		if rng.Start.IsZero() || tx.BookingDate.Before(rng.Start) {
			rng.Start = tx.BookingDate
		}
		if rng.End.IsZero() || tx.BookingDate.After(rng.End) {
			rng.End = tx.BookingDate
		}
	}
	return rng
}

// OutputFilename derives the report name from the input name and date range:
// {base}_{start}_{end}{ext}, or {base}{ext} without a range.
func OutputFilename(input string, rng models.DateRange, format report.Format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	base = sanitize(base)
	if s := rng.String(); s != "" {
		return fmt.Sprintf("%s_%s%s", base, s, format.Extension())
	}
	return base + format.Extension()
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

// detectAndLogDuplicates counts transactions sharing account, date, amount and
// description with an earlier one. Duplicates are kept; they are only reported.
func (p *Processor) detectAndLogDuplicates(transactions []models.Transaction, file string) int {
	type key struct {
		account, amount, description string
		day                          time.Time
	}
	seen := make(map[key]int, len(transactions))
	duplicates := 0
	for _, tx := range transactions {
		k := key{tx.AccountID, tx.Amount.String(), strings.ToLower(tx.Description), models.Day(tx.BookingDate)}
		if first, ok := seen[k]; ok {
			duplicates++
			p.logger.Debug("Potential duplicate transaction",
				logging.Field{Key: logging.FieldFile, Value: filepath.Base(file)},
				logging.Field{Key: logging.FieldRow, Value: tx.SourceRow},
				logging.Field{Key: "first_row", Value: first})
			continue
		}
		seen[k] = tx.SourceRow
	}
	if duplicates > 0 {
		p.logger.Warn("Found potential duplicate transactions",
			logging.Field{Key: logging.FieldCount, Value: duplicates},
			logging.Field{Key: logging.FieldFile, Value: filepath.Base(file)})
	}
	return duplicates
}
