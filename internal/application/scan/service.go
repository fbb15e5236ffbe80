package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cybershikshax/shiksha-cli/internal/classifier"
	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	"github.com/cybershikshax/shiksha-cli/internal/report"
	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
	sharedErrors "github.com/cybershikshax/shiksha-cli/internal/shared/errors"
	"go.uber.org/zap"
)

// Latencies is the simulated processing time per scan kind.
type Latencies map[scan.Kind]time.Duration

// DefaultLatencies returns the stock delays.
func DefaultLatencies() Latencies {
	return Latencies{
		scan.KindEmail: consts.EmailScanLatency,
		scan.KindURL:   consts.URLScanLatency,
		scan.KindPort:  consts.PortScanLatency,
	}
}

// Service runs mock scans and records their results for the session.
type Service struct {
	classifier *classifier.Classifier
	store      scan.Store
	latencies  Latencies
	logger     *zap.Logger
}

// NewService creates a new scan service
func NewService(c *classifier.Classifier, store scan.Store, latencies Latencies, logger *zap.Logger) *Service {
	if latencies == nil {
		latencies = DefaultLatencies()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		classifier: c,
		store:      store,
		latencies:  latencies,
		logger:     logger,
	}
}

// Submit waits out the kind's simulated latency, classifies the input and
// appends the result. A cancelled context abandons the scan and leaves the
// store untouched.
func (s *Service) Submit(ctx context.Context, kind scan.Kind, text string) (*scan.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, sharedErrors.ErrEmptyInput
	}
	kind, err := scan.ParseKind(string(kind))
	if err != nil {
		return nil, err
	}

	if err := wait(ctx, s.latencies[kind]); err != nil {
		s.logger.Info("scan cancelled", zap.String("kind", string(kind)))
		return nil, fmt.Errorf("%s scan cancelled: %w", kind, err)
	}

	result, err := s.classifier.Classify(kind, text)
	if err != nil {
		return nil, fmt.Errorf("failed to classify input: %w", err)
	}
	s.store.Append(result)

	s.logger.Info("scan complete",
		zap.String("id", result.ID()),
		zap.String("kind", string(kind)),
		zap.String("risk", string(result.RiskLevel())),
		zap.String("status", string(result.Status())),
	)
	return result, nil
}

// Results returns the session's results, most recent first.
func (s *Service) Results() []*scan.Result {
	return s.store.All()
}

func (s *Service) Summary() scan.Summary {
	return s.store.Summarize()
}

// Report builds the export document for the current results, dated by
// the classifier's clock.
func (s *Service) Report() report.Report {
	return report.Build(s.store.All(), s.classifier.Now())
}

// Export writes the current results to dir and returns the file path.
func (s *Service) Export(dir string, format report.Format) (string, error) {
	path, err := report.Export(dir, s.store.All(), format, s.classifier.Now())
	if err != nil {
		return "", err
	}
	s.logger.Info("report exported", zap.String("path", path), zap.String("format", string(format)))
	return path, nil
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
