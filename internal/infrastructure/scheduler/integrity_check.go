// Package scheduler runs background jobs on a fixed interval.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gpms/backend/internal/application/integrity"
)

// IntegrityChecker is the part of the integrity service the job drives.
type IntegrityChecker interface {
	ValidateProductIntegrity(ctx context.Context) (*integrity.Report, error)
	FixProductIntegrityIssues(ctx context.Context) (*integrity.FixResult, error)
}

// IntegrityCheckConfig holds configuration for the periodic integrity check
type IntegrityCheckConfig struct {
	// Interval between checks. Zero disables the job.
	Interval time.Duration
	// AutoFix repairs the findings of an unhealthy check.
	AutoFix bool
}

// IntegrityCheck validates the catalog and barcode registry periodically.
type IntegrityCheck struct {
	config  IntegrityCheckConfig
	checker IntegrityChecker
	logger  *zap.Logger

	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	isRunning  bool
	lastReport *integrity.Report
}

// NewIntegrityCheck creates a new IntegrityCheck
func NewIntegrityCheck(config IntegrityCheckConfig, checker IntegrityChecker, logger *zap.Logger) *IntegrityCheck {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrityCheck{
		config:  config,
		checker: checker,
		logger:  logger,
	}
}

// Start launches the check loop. It is a no-op when already running or when
// the interval is zero.
func (j *IntegrityCheck) Start(ctx context.Context) error {
	if j.config.Interval <= 0 {
		j.logger.Info("Integrity check disabled")
		return nil
	}

	j.mu.Lock()
	if j.isRunning {
		j.mu.Unlock()
		return nil
	}
	j.isRunning = true
	j.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	j.cancel = cancel

	j.wg.Add(1)
	go j.runLoop(ctx)

	j.logger.Info("Integrity check started",
		zap.Duration("interval", j.config.Interval),
		zap.Bool("auto_fix", j.config.AutoFix),
	)
	return nil
}

// Stop cancels the loop and waits for a running check to finish.
func (j *IntegrityCheck) Stop(ctx context.Context) error {
	j.mu.Lock()
	if !j.isRunning {
		j.mu.Unlock()
		return nil
	}
	j.isRunning = false
	j.mu.Unlock()

	if j.cancel != nil {
		j.cancel()
	}

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		j.logger.Info("Integrity check stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *IntegrityCheck) runLoop(ctx context.Context) {
	defer j.wg.Done()

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce validates once and, with AutoFix, repairs an unhealthy result.
func (j *IntegrityCheck) RunOnce(ctx context.Context) {
	report, err := j.checker.ValidateProductIntegrity(ctx)
	if err != nil {
		j.logger.Error("Integrity check failed", zap.Error(err))
		return
	}

	j.mu.Lock()
	j.lastReport = report
	j.mu.Unlock()

	if report.IsHealthy {
		j.logger.Debug("Integrity check healthy")
		return
	}

	j.logger.Warn("Integrity issues found",
		zap.Int("missing_barcodes", len(report.MissingBarcodes)),
		zap.Int("orphaned_units", len(report.OrphanedUnits)),
		zap.Int("duplicate_serials", len(report.DuplicateSerials)),
		zap.Int("inconsistent_flags", len(report.InconsistentFlags)),
	)
	if !j.config.AutoFix {
		return
	}

	result, err := j.checker.FixProductIntegrityIssues(ctx)
	if err != nil {
		j.logger.Error("Integrity auto-fix failed", zap.Error(err))
		return
	}
	j.logger.Info("Integrity issues fixed",
		zap.Int("fixed_barcodes", result.FixedBarcodes),
		zap.Int("fixed_flags", result.FixedFlags),
		zap.Int("fixed_units", result.FixedUnits),
	)
}

// LastReport returns the most recent successful report, nil before the first.
func (j *IntegrityCheck) LastReport() *integrity.Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastReport
}
