package zensegur

import (
	"fmt"
	"math"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var tRecipe = reflect.TypeOf(Recipe{})

// MongoRegistry is the driver's default registry plus the Recipe mapping.
var MongoRegistry = newMongoRegistry()

func newMongoRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(tRecipe, bsoncodec.ValueEncoderFunc(encodeRecipe))
	reg.RegisterTypeDecoder(tRecipe, bsoncodec.ValueDecoderFunc(decodeRecipe))
	return reg
}

func encodeRecipe(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tRecipe {
		return bsoncodec.ValueEncoderError{Name: "encodeRecipe", Types: []reflect.Type{tRecipe}, Received: val}
	}
	r := val.Interface().(Recipe)

	dw, err := vw.WriteDocument()
	if err != nil {
		return err
	}

	if !r.ID.IsZero() {
		evw, err := dw.WriteDocumentElement(FieldID)
		if err != nil {
			return err
		}
		if err := evw.WriteObjectID(r.ID); err != nil {
			return err
		}
	}

	evw, err := dw.WriteDocumentElement(FieldName)
	if err != nil {
		return err
	}
	if err := evw.WriteString(r.Name); err != nil {
		return err
	}

	evw, err = dw.WriteDocumentElement(FieldIngredients)
	if err != nil {
		return err
	}
	aw, err := evw.WriteArray()
	if err != nil {
		return err
	}
	for _, ingredient := range r.Ingredients {
		avw, err := aw.WriteArrayElement()
		if err != nil {
			return err
		}
		if err := avw.WriteString(ingredient); err != nil {
			return err
		}
	}
	if err := aw.WriteArrayEnd(); err != nil {
		return err
	}

	evw, err = dw.WriteDocumentElement(FieldPrepTime)
	if err != nil {
		return err
	}
	if r.PrepTimeInMinutes >= math.MinInt32 && r.PrepTimeInMinutes <= math.MaxInt32 {
		err = evw.WriteInt32(int32(r.PrepTimeInMinutes))
	} else {
		err = evw.WriteInt64(int64(r.PrepTimeInMinutes))
	}
	if err != nil {
		return err
	}

	return dw.WriteDocumentEnd()
}

func decodeRecipe(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tRecipe {
		return bsoncodec.ValueDecoderError{Name: "decodeRecipe", Types: []reflect.Type{tRecipe}, Received: val}
	}

	r := NewRecipe()
	if vr.Type() == bsontype.Null {
		if err := vr.ReadNull(); err != nil {
			return err
		}
		val.Set(reflect.ValueOf(r))
		return nil
	}

	dr, err := vr.ReadDocument()
	if err != nil {
		return err
	}

	for {
		key, evr, err := dr.ReadElement()
		if err == bsonrw.ErrEOD {
			break
		}
		if err != nil {
			return err
		}

		switch key {
		case FieldID:
			if evr.Type() == bsontype.ObjectID {
				r.ID, err = evr.ReadObjectID()
			} else {
				err = evr.Skip()
			}
		case FieldName:
			r.Name, err = readString(evr)
		case FieldIngredients:
			r.Ingredients, err = readStrings(evr)
		case FieldPrepTime:
			r.PrepTimeInMinutes, err = readInt(evr)
			if err == nil && r.PrepTimeInMinutes < 0 {
				err = fmt.Errorf("%d is negative", r.PrepTimeInMinutes)
			}
		default:
			err = evr.Skip()
		}
		if err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
	}

	val.Set(reflect.ValueOf(r))
	return nil
}

func readString(vr bsonrw.ValueReader) (string, error) {
	if vr.Type() == bsontype.Null {
		return "", vr.ReadNull()
	}
	return vr.ReadString()
}

func readStrings(vr bsonrw.ValueReader) ([]string, error) {
	out := []string{}
	if vr.Type() == bsontype.Null {
		return out, vr.ReadNull()
	}

	ar, err := vr.ReadArray()
	if err != nil {
		return nil, err
	}
	for {
		evr, err := ar.ReadValue()
		if err == bsonrw.ErrEOA {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		s, err := readString(evr)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

func readInt(vr bsonrw.ValueReader) (int, error) {
	switch vr.Type() {
	case bsontype.Int32:
		i, err := vr.ReadInt32()
		return int(i), err
	case bsontype.Int64:
		i, err := vr.ReadInt64()
		return int(i), err
	case bsontype.Double:
		f, err := vr.ReadDouble()
		if err != nil {
			return 0, err
		}
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("%v is not a whole number", f)
		}
		if f < math.MinInt || f >= math.MaxInt {
			return 0, fmt.Errorf("%v overflows int", f)
		}
		return int(f), nil
	case bsontype.Null:
		return 0, vr.ReadNull()
	default:
		return 0, fmt.Errorf("cannot decode %v into an integer", vr.Type())
	}
}
