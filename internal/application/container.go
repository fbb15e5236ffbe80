package application

import (
	"fmt"
	"time"

	learnapp "github.com/cybershikshax/shiksha-cli/internal/application/learn"
	scanapp "github.com/cybershikshax/shiksha-cli/internal/application/scan"
	"github.com/cybershikshax/shiksha-cli/internal/classifier"
	"github.com/cybershikshax/shiksha-cli/internal/connectivity"
	"github.com/cybershikshax/shiksha-cli/internal/domain/progress"
	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
	"github.com/cybershikshax/shiksha-cli/internal/infrastructure/persistence/json"
	"github.com/cybershikshax/shiksha-cli/internal/infrastructure/persistence/memory"
	consts "github.com/cybershikshax/shiksha-cli/internal/shared/constants"
	"go.uber.org/zap"
)

// Options configures a Container. Zero values select the defaults.
type Options struct {
	DataDir     string
	Rules       *classifier.Rules
	Latencies   scanapp.Latencies
	ChatLatency *time.Duration
	Picker      classifier.Picker
	// Clock stamps results and reports; nil uses time.Now.
	Clock  func() time.Time
	Logger *zap.Logger
}

// Container holds all application services and stores for one session.
// This is a simple dependency injection container
type Container struct {
	// Stores
	Storage    *json.LocalStorage
	Results    scan.Store
	Progress   *progress.Store
	Network    *connectivity.Monitor
	Rules      classifier.Rules
	Classifier *classifier.Classifier
	Tutor      *classifier.Tutor

	// Services
	ScanService  *scanapp.Service
	LearnService *learnapp.Service
}

// NewContainer creates a new application service container
func NewContainer(opts Options) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	storage, err := json.NewLocalStorage(opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	rules := classifier.DefaultRules()
	if opts.Rules != nil {
		rules = *opts.Rules
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	chatLatency := consts.ChatLatency
	if opts.ChatLatency != nil {
		chatLatency = *opts.ChatLatency
	}

	results := memory.NewScanResultStore()
	progressStore := progress.Open(storage, progress.DefaultCurriculum())
	c := classifier.New(rules, classifier.WithClock(opts.Clock))
	tutor := classifier.NewTutor(rules, opts.Picker)

	return &Container{
		Storage:      storage,
		Results:      results,
		Progress:     progressStore,
		Network:      connectivity.NewMonitor(true, logger),
		Rules:        rules,
		Classifier:   c,
		Tutor:        tutor,
		ScanService:  scanapp.NewService(c, results, opts.Latencies, logger),
		LearnService: learnapp.NewService(progressStore, tutor, chatLatency, logger),
	}, nil
}
