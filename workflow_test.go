package zensegur

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type runnerFixture struct {
	store  *memStore
	out    *bytes.Buffer
	logs   *bytes.Buffer
	runner *Runner
}

func newRunnerFixture(store *memStore, mutate func(*WorkflowOptions)) *runnerFixture {
	opts := DefaultWorkflowOptions()
	if mutate != nil {
		mutate(&opts)
	}
	f := &runnerFixture{store: store, out: &bytes.Buffer{}, logs: &bytes.Buffer{}}
	f.runner = NewRunner(store, opts, f.out, NewLogger(f.logs, "info"), nil)
	return f
}

func (f *runnerFixture) lines() []string {
	return strings.Split(strings.TrimRight(f.out.String(), "\n"), "\n")
}

func TestRunnerFullSequence(t *testing.T) {
	f := newRunnerFixture(&memStore{}, nil)

	require.NoError(t, f.runner.Run(context.Background()))

	assert.Equal(t, []string{
		"Inserted 4 documents.",
		"elotes has 5 ingredients and takes 35 minutes to make",
		"loco moco has 6 ingredients and takes 54 minutes to make",
		"patatas bravas has 6 ingredients and takes 80 minutes to make",
		"fried rice has 7 ingredients and takes 40 minutes to make",
		"Updated the recipe to: Recipe{name=patatas bravas, ingredients=[potato, tomato, olive oil, onion, garlic, paprika], prepTimeInMinutes=72}",
		"Deleted 2 documents.",
	}, f.lines())
	assert.Empty(t, f.logs.String())

	require.Equal(t, []string{"loco moco", "patatas bravas"}, f.store.names())
	assert.Equal(t, 54, f.store.recipes[0].PrepTimeInMinutes)
	assert.Equal(t, 72, f.store.recipes[1].PrepTimeInMinutes)
	assert.Equal(t, SeedRecipes()[2].Ingredients, f.store.recipes[1].Ingredients)
}

func TestRunnerSecondRunFindsNothing(t *testing.T) {
	store := &memStore{}
	first := newRunnerFixture(store, nil)
	require.NoError(t, first.runner.Run(context.Background()))

	_, err := store.DeleteMany(context.Background(), Where(FieldName, "==", "patatas bravas"))
	require.NoError(t, err)

	second := newRunnerFixture(store, func(o *WorkflowOptions) { o.Seed = nil })
	err = second.runner.Run(context.Background())

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, "find", fatal.Step)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{
		"Inserted 0 documents.",
		"loco moco has 6 ingredients and takes 54 minutes to make",
		"Couldn't find any recipes containing 'potato' as an ingredient in MongoDB.",
	}, second.lines())
	assert.Equal(t, 1, store.updates, "update step must not run after a fatal miss")
}

func TestRunnerNotFoundContinue(t *testing.T) {
	store := &memStore{recipes: []Recipe{SeedRecipes()[1]}}
	f := newRunnerFixture(store, func(o *WorkflowOptions) {
		o.Seed = nil
		o.NotFound = NotFoundContinue
	})

	require.NoError(t, f.runner.Run(context.Background()))
	assert.Equal(t, []string{
		"Inserted 0 documents.",
		"loco moco has 6 ingredients and takes 54 minutes to make",
		"Couldn't find any recipes containing 'potato' as an ingredient in MongoDB.",
		"Couldn't update the recipe. Did someone (or something) delete it?",
		"Deleted 0 documents.",
	}, f.lines())
}

func TestRunnerEmptyDeleteSet(t *testing.T) {
	f := newRunnerFixture(&memStore{}, func(o *WorkflowOptions) { o.DeleteNames = nil })

	require.NoError(t, f.runner.Run(context.Background()))
	assert.Contains(t, f.out.String(), "Deleted 0 documents.")
	assert.Empty(t, f.logs.String())
	assert.Len(t, f.store.recipes, 4)
}

func TestRunnerSeedFailureIsFatal(t *testing.T) {
	boom := writeError("insert", errors.New("E11000 duplicate key error"))
	f := newRunnerFixture(&memStore{insertErr: boom}, nil)

	err := f.runner.Run(context.Background())

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, "seed", fatal.Step)
	assert.True(t, IsKind(err, KindWrite))
	assert.Empty(t, f.out.String())
	assert.Contains(t, f.logs.String(), "Unable to insert any recipes into MongoDB due to an error")
}

func TestRunnerFindErrorIsFatal(t *testing.T) {
	f := newRunnerFixture(&memStore{findErr: readError("find one", errors.New("connection reset"))}, nil)

	err := f.runner.Run(context.Background())

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, "find", fatal.Step)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, f.logs.String(), "Unable to find a recipe to update in MongoDB due to an error")
	assert.Equal(t, 0, f.store.updates)
}

func TestRunnerNonFatalFailures(t *testing.T) {
	tests := []struct {
		name    string
		store   *memStore
		logLine string
		missing string
	}{
		{
			name:    "scan",
			store:   &memStore{scanErr: readError("find", errors.New("cursor killed"))},
			logLine: "Unable to find any recipes in MongoDB due to an error",
			missing: "has 5 ingredients",
		},
		{
			name:    "update",
			store:   &memStore{updateErr: writeError("find one and update", errors.New("not primary"))},
			logLine: "Unable to update any recipes due to an error",
			missing: "Updated the recipe to",
		},
		{
			name:    "delete",
			store:   &memStore{deleteErr: writeError("delete", errors.New("not primary"))},
			logLine: "Unable to delete any recipes due to an error",
			missing: "Deleted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunnerFixture(tt.store, nil)

			require.NoError(t, f.runner.Run(context.Background()))
			assert.Contains(t, f.logs.String(), tt.logLine)
			assert.NotContains(t, f.out.String(), tt.missing)
			assert.Contains(t, f.out.String(), "Inserted 4 documents.")
		})
	}
}

func TestRunnerReturnBefore(t *testing.T) {
	f := newRunnerFixture(&memStore{}, func(o *WorkflowOptions) { o.ReturnBefore = true })

	require.NoError(t, f.runner.Run(context.Background()))
	assert.Contains(t, f.out.String(), "prepTimeInMinutes=80}")
	assert.Equal(t, 72, f.store.recipes[1].PrepTimeInMinutes)
}

func TestRunnerAgainstMockDeployment(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("full sequence", func(mt *mtest.T) {
		var all []bson.D
		for _, r := range SeedRecipes() {
			all = append(all, recipeDoc(r))
		}
		bravas := SeedRecipes()[2]
		updated := bravas
		updated.PrepTimeInMinutes = 72

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, all...),
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch, recipeDoc(bravas)),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: recipeDoc(updated)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(2)}),
		)

		out := &bytes.Buffer{}
		logs := &bytes.Buffer{}
		runner := NewRunner(newTestRepository(mt), DefaultWorkflowOptions(), out, NewLogger(logs, "info"), nil)

		require.NoError(mt, runner.Run(context.Background()))
		assert.Equal(mt, "Inserted 4 documents.\n"+
			"elotes has 5 ingredients and takes 35 minutes to make\n"+
			"loco moco has 6 ingredients and takes 54 minutes to make\n"+
			"patatas bravas has 6 ingredients and takes 80 minutes to make\n"+
			"fried rice has 7 ingredients and takes 40 minutes to make\n"+
			"Updated the recipe to: "+updated.String()+"\n"+
			"Deleted 2 documents.\n", out.String())
		assert.Empty(mt, logs.String())

		var commands []string
		for _, evt := range mt.GetAllStartedEvents() {
			commands = append(commands, evt.CommandName)
		}
		assert.Equal(mt, []string{"insert", "find", "find", "findAndModify", "delete"}, commands)
	})

	mt.Run("find miss stops the run", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch),
			mtest.CreateCursorResponse(0, testNamespace, mtest.FirstBatch),
		)

		out := &bytes.Buffer{}
		runner := NewRunner(newTestRepository(mt), DefaultWorkflowOptions(), out, NewLogger(&bytes.Buffer{}, "info"), nil)

		err := runner.Run(context.Background())
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.Len(mt, mt.GetAllStartedEvents(), 3)
	})
}
