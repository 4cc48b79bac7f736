package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"memcoach/internal/arbiter"
	"memcoach/internal/arbiter/ollama"
	"memcoach/internal/bootstrap"
	"memcoach/internal/config"
	"memcoach/internal/content"
	"memcoach/internal/database"
	"memcoach/internal/grading"
	"memcoach/internal/progress"
	"memcoach/internal/queue"
	"memcoach/internal/review"
)

var (
	configFile string
	asParent   bool
)

func main() {
	var debugMode bool
	rootCommand := cobra.Command{
		Use:           "memcoach",
		Short:         "Spaced repetition coach for memorization practice",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode")
	rootCommand.PersistentFlags().BoolVar(&asParent, "as-parent", false, "Run parent-level actions")

	rootCommand.AddCommand(
		newTodayCommand(),
		newReviewCommand(),
		newOverrideCommand(),
		newStatsCommand(),
		newSearchCommand(),
		newMigrateCommand(),
	)
	if err := rootCommand.Execute(); err != nil {
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
	os.Exit(0)
}

// setupLogger configures the default logger based on debug mode
func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})),
	)
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}

// appContext bundles the resources every command needs.
type appContext struct {
	cfg *config.Config
	db  *sqlx.DB
	app *bootstrap.App
}

func newAppContext() (*appContext, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loadConfig() > %w", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database.Open() > %w", err)
	}

	app := bootstrap.New()
	app.AddCloser("database", db)
	return &appContext{cfg: cfg, db: db, app: app}, nil
}

func (a *appContext) newArbiterClient() arbiter.Client {
	if !a.cfg.Arbiter.Enabled {
		return nil
	}
	client := ollama.NewClient(
		a.cfg.Arbiter.BaseURL,
		a.cfg.Arbiter.Model,
		a.cfg.Arbiter.Timeout(),
		uint(a.cfg.Arbiter.RetryAttempts),
	)
	a.app.AddCloser("arbiter", client)
	slog.Debug("borderline arbiter enabled", slog.String("model", client.GetModel()))
	return client
}

func (a *appContext) newGrader() *grading.Grader {
	thresholds := grading.Thresholds{
		Perfect:            a.cfg.Grading.PerfectThreshold,
		Good:               a.cfg.Grading.GoodThreshold,
		EscalateBorderline: a.cfg.Grading.EscalateBorderline,
	}
	return grading.NewGrader(thresholds, a.newArbiterClient(), a.cfg.Arbiter.Timeout())
}

func (a *appContext) newWorkflow() *review.Workflow {
	return review.NewWorkflow(
		a.db,
		content.NewRepository(a.db),
		a.newGrader(),
		progress.NewRepository(a.db),
		progress.NewReviewRepository(a.db),
		flagGate{},
		slog.Default(),
	)
}

func (a *appContext) newAssembler() *queue.Assembler {
	return queue.NewAssembler(
		content.NewRepository(a.db),
		queue.NewDueSelector(a.db),
		progress.NewReviewRepository(a.db),
		slog.Default(),
	)
}

func (a *appContext) selectOptions() queue.SelectOptions {
	opts := queue.SelectOptions{
		GroupBySourceText: a.cfg.Queue.GroupBySourceText,
	}
	if a.cfg.Queue.Randomize && !opts.GroupBySourceText {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return opts
}
