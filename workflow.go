package zensegur

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type NotFoundPolicy string

const (
	// NotFoundFatal stops the run when the lookup finds nothing, as the exit code expects.
	NotFoundFatal NotFoundPolicy = "fatal"
	// NotFoundContinue reports the miss and moves on to the update step.
	NotFoundContinue NotFoundPolicy = "continue"
)

func (p NotFoundPolicy) valid() bool {
	return p == NotFoundFatal || p == NotFoundContinue
}

type RecipeStore interface {
	InsertAll(ctx context.Context, recipes []Recipe) (int, error)
	Each(ctx context.Context, filter Filter, fn func(Recipe) bool) error
	GetFirst(ctx context.Context, filter Filter) (*Recipe, error)
	FindOneAndUpdate(ctx context.Context, filter Filter, fields Update, opts ...UpdateOption) (*Recipe, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
}

type WorkflowOptions struct {
	Seed         []Recipe
	Ingredient   string
	PrepTime     int
	DeleteNames  []string
	ReturnBefore bool
	NotFound     NotFoundPolicy
	StepTimeout  time.Duration
}

func DefaultWorkflowOptions() WorkflowOptions {
	return WorkflowOptions{
		Seed:        SeedRecipes(),
		Ingredient:  "potato",
		PrepTime:    72,
		DeleteNames: []string{"elotes", "fried rice"},
		NotFound:    NotFoundFatal,
		StepTimeout: 30 * time.Second,
	}
}

func workflowOptionsFromConfig(cfg *Config) WorkflowOptions {
	opts := DefaultWorkflowOptions()
	opts.NotFound = cfg.NotFound
	if cfg.StepTimeout > 0 {
		opts.StepTimeout = cfg.StepTimeout
	}
	return opts
}

// Runner drives the demo sequence against a RecipeStore. Operator output goes
// to out, failures go to the logger.
type Runner struct {
	store     RecipeStore
	opts      WorkflowOptions
	out       io.Writer
	log       *logrus.Logger
	telemetry *Telemetry
}

func NewRunner(store RecipeStore, opts WorkflowOptions, out io.Writer, logger *logrus.Logger, telemetry *Telemetry) *Runner {
	if opts.NotFound == "" {
		opts.NotFound = NotFoundFatal
	}
	return &Runner{
		store:     store,
		opts:      opts,
		out:       out,
		log:       logger,
		telemetry: telemetry,
	}
}

type step struct {
	name string
	fn   func(ctx context.Context, log *logrus.Entry) error
}

// Run executes seed, scan, find, update and delete in order. It returns a
// *FatalError for the failures that end the run and nil otherwise; the
// non-fatal ones are only logged.
func (r *Runner) Run(ctx context.Context) error {
	runID := uuid.New()
	ctx = WithRunID(ctx, runID)
	ctx, span := r.telemetry.StartTransaction(ctx, "recipes.workflow")
	defer span.End()

	entry := r.log.WithField("run_id", runID.String())

	steps := []step{
		{"seed", r.Seed},
		{"scan", r.Scan},
		{"find", r.FindOne},
		{"update", r.Update},
		{"delete", r.Delete},
	}

	for _, s := range steps {
		if err := r.runStep(ctx, entry, s); err != nil {
			span.Fail(err)
			return err
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, entry *logrus.Entry, s step) error {
	ctx, span := r.telemetry.StartTransaction(ctx, "recipes."+s.name)
	defer span.End()

	if r.opts.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.StepTimeout)
		defer cancel()
	}

	log := entry.WithField("step", s.name)
	log.Debug("step started")
	err := s.fn(ctx, log)
	if err != nil {
		span.Fail(err)
	}
	return err
}

func (r *Runner) Seed(ctx context.Context, log *logrus.Entry) error {
	inserted, err := r.store.InsertAll(ctx, r.opts.Seed)
	if err != nil {
		log.Errorf("Unable to insert any recipes into MongoDB due to an error: %v", err)
		return &FatalError{Step: "seed", Err: err}
	}
	fmt.Fprintf(r.out, "Inserted %d documents.\n", inserted)
	return nil
}

func (r *Runner) Scan(ctx context.Context, log *logrus.Entry) error {
	err := r.store.Each(ctx, nil, func(recipe Recipe) bool {
		fmt.Fprintf(r.out, "%s has %d ingredients and takes %d minutes to make\n",
			recipe.Name, recipe.IngredientCount(), recipe.PrepTimeInMinutes)
		return true
	})
	if err != nil {
		log.Errorf("Unable to find any recipes in MongoDB due to an error: %v", err)
	}
	return nil
}

func (r *Runner) ingredientFilter() Filter {
	return Where(FieldIngredients, "array-contains", r.opts.Ingredient)
}

func (r *Runner) FindOne(ctx context.Context, log *logrus.Entry) error {
	found, err := r.store.GetFirst(ctx, r.ingredientFilter())
	if errors.Is(err, ErrNotFound) {
		fmt.Fprintf(r.out, "Couldn't find any recipes containing '%s' as an ingredient in MongoDB.\n", r.opts.Ingredient)
		if r.opts.NotFound == NotFoundFatal {
			return &FatalError{Step: "find", Err: err}
		}
		return nil
	}
	if err != nil {
		log.Errorf("Unable to find a recipe to update in MongoDB due to an error: %v", err)
		return &FatalError{Step: "find", Err: err}
	}

	log.WithField("recipe", found.Name).Debug("found recipe")
	return nil
}

func (r *Runner) Update(ctx context.Context, log *logrus.Entry) error {
	var opts []UpdateOption
	if r.opts.ReturnBefore {
		opts = append(opts, ReturnBefore())
	}

	updated, err := r.store.FindOneAndUpdate(ctx, r.ingredientFilter(), Set(FieldPrepTime, r.opts.PrepTime), opts...)
	switch {
	case errors.Is(err, ErrNotFound):
		fmt.Fprintln(r.out, "Couldn't update the recipe. Did someone (or something) delete it?")
	case err != nil:
		log.Errorf("Unable to update any recipes due to an error: %v", err)
	default:
		fmt.Fprintf(r.out, "Updated the recipe to: %s\n", updated)
	}
	return nil
}

func (r *Runner) Delete(ctx context.Context, log *logrus.Entry) error {
	deleted, err := r.store.DeleteMany(ctx, Where(FieldName, "in", r.opts.DeleteNames))
	if err != nil {
		log.Errorf("Unable to delete any recipes due to an error: %v", err)
		return nil
	}
	fmt.Fprintf(r.out, "Deleted %d documents.\n", deleted)
	return nil
}
