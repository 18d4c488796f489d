package zensegur

import (
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

// Filter is an ordered MongoDB query document.
type Filter bson.D

// Update is an ordered $set document.
type Update bson.D

func Where(field string, op string, value interface{}) Filter {
	return Filter{}.Where(field, op, value)
}

func (f Filter) Where(field string, op string, value interface{}) Filter {
	var clause interface{}

	switch op {
	case "==", "array-contains":
		// igualdade num campo array casa com qualquer elemento
		clause = value
	case "!=":
		clause = bson.D{{Key: "$ne", Value: value}}
	case ">":
		clause = bson.D{{Key: "$gt", Value: value}}
	case ">=":
		clause = bson.D{{Key: "$gte", Value: value}}
	case "<":
		clause = bson.D{{Key: "$lt", Value: value}}
	case "<=":
		clause = bson.D{{Key: "$lte", Value: value}}
	case "in":
		clause = bson.D{{Key: "$in", Value: arrayValue(value)}}
	case "not-in":
		clause = bson.D{{Key: "$nin", Value: arrayValue(value)}}
	default:
		clause = value
	}

	out := make(Filter, 0, len(f)+1)
	out = append(out, f...)
	return append(out, bson.E{Key: field, Value: clause})
}

// arrayValue keeps $in and $nin operands arrays; a nil slice would be sent as null.
func arrayValue(value interface{}) interface{} {
	if value == nil {
		return bson.A{}
	}
	if v := reflect.ValueOf(value); v.Kind() == reflect.Slice && v.IsNil() {
		return bson.A{}
	}
	return value
}

// Document returns the filter in the form the driver expects; nil becomes {}.
func (f Filter) Document() bson.D {
	if f == nil {
		return bson.D{}
	}
	return bson.D(f)
}

func Set(field string, value interface{}) Update {
	return Update{}.Set(field, value)
}

func (u Update) Set(field string, value interface{}) Update {
	out := make(Update, 0, len(u)+1)
	out = append(out, u...)
	return append(out, bson.E{Key: field, Value: value})
}

func (u Update) Document() bson.D {
	return bson.D{{Key: "$set", Value: bson.D(u)}}
}
