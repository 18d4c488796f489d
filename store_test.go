package zensegur

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// memStore is an in-memory RecipeStore that understands the filters the
// workflow builds: equality on name, array membership on ingredients and $in.
type memStore struct {
	recipes []Recipe

	insertErr error
	scanErr   error
	findErr   error
	updateErr error
	deleteErr error

	updates int
}

func cloneRecipe(r Recipe) Recipe {
	r.Ingredients = append([]string{}, r.Ingredients...)
	return r
}

func (m *memStore) InsertAll(_ context.Context, recipes []Recipe) (int, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	for _, r := range recipes {
		r = cloneRecipe(r)
		r.ID = primitive.NewObjectID()
		m.recipes = append(m.recipes, r)
	}
	return len(recipes), nil
}

func (m *memStore) Each(_ context.Context, filter Filter, fn func(Recipe) bool) error {
	if m.scanErr != nil {
		return m.scanErr
	}
	for _, r := range m.recipes {
		if matches(r, filter) && !fn(cloneRecipe(r)) {
			break
		}
	}
	return nil
}

func (m *memStore) GetFirst(_ context.Context, filter Filter) (*Recipe, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.recipes {
		if matches(r, filter) {
			c := cloneRecipe(r)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindOneAndUpdate(_ context.Context, filter Filter, fields Update, opts ...UpdateOption) (*Recipe, error) {
	m.updates++
	if m.updateErr != nil {
		return nil, m.updateErr
	}

	o := options.FindOneAndUpdate().SetReturnDocument(options.After)
	for _, opt := range opts {
		opt(o)
	}

	for i := range m.recipes {
		if !matches(m.recipes[i], filter) {
			continue
		}
		before := cloneRecipe(m.recipes[i])
		for _, e := range fields {
			switch e.Key {
			case FieldPrepTime:
				m.recipes[i].PrepTimeInMinutes = e.Value.(int)
			case FieldName:
				m.recipes[i].Name = e.Value.(string)
			}
		}
		if o.ReturnDocument != nil && *o.ReturnDocument == options.Before {
			return &before, nil
		}
		after := cloneRecipe(m.recipes[i])
		return &after, nil
	}
	return nil, ErrNotFound
}

func (m *memStore) DeleteMany(_ context.Context, filter Filter) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	kept := m.recipes[:0]
	var deleted int64
	for _, r := range m.recipes {
		if matches(r, filter) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.recipes = kept
	return deleted, nil
}

func (m *memStore) names() []string {
	out := []string{}
	for _, r := range m.recipes {
		out = append(out, r.Name)
	}
	return out
}

func matches(r Recipe, filter Filter) bool {
	for _, e := range filter {
		if !matchField(r, e.Key, e.Value) {
			return false
		}
	}
	return true
}

func matchField(r Recipe, field string, cond interface{}) bool {
	if ops, ok := cond.(bson.D); ok {
		for _, op := range ops {
			if op.Key != "$in" {
				return false
			}
			hit := false
			var values []interface{}
			switch vs := op.Value.(type) {
			case []string:
				for _, v := range vs {
					values = append(values, v)
				}
			case bson.A:
				values = vs
			}
			for _, v := range values {
				if matchField(r, field, v) {
					hit = true
				}
			}
			if !hit {
				return false
			}
		}
		return true
	}

	switch field {
	case FieldName:
		return r.Name == cond
	case FieldIngredients:
		s, ok := cond.(string)
		return ok && r.HasIngredient(s)
	case FieldPrepTime:
		return r.PrepTimeInMinutes == cond
	}
	return false
}
