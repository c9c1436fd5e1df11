package mongostore

import (
	"context"
	"fmt"
	"time"

	"pet-health-tracker/internal/domain/records"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Campos comunes de un registro. Los propios del tipo van al mismo nivel.
const (
	keyID       = "_id"
	keyPetID    = "pet_id"
	keyDateTime = "date_time"
	keyComment  = "comment"
	keyUsername = "username"
)

// RecordsRepo usa una colección por tipo (KindSpec.Collection).
type RecordsRepo struct {
	db *mongo.Database
}

func NewRecordsRepo(db *mongo.Database) *RecordsRepo {
	return &RecordsRepo{db: db}
}

func (r *RecordsRepo) collection(kind records.Kind) (*mongo.Collection, records.KindSpec, error) {
	spec, ok := records.Lookup(string(kind))
	if !ok {
		return nil, records.KindSpec{}, fmt.Errorf("mongostore: unknown record kind %q", kind)
	}
	return r.db.Collection(spec.Collection), spec, nil
}

func (r *RecordsRepo) Create(ctx context.Context, rec records.Record) error {
	coll, _, err := r.collection(rec.Kind)
	if err != nil {
		return err
	}
	oid, err := primitive.ObjectIDFromHex(rec.ID)
	if err != nil {
		return err
	}

	doc := bson.M{
		keyID:       oid,
		keyPetID:    rec.PetID,
		keyDateTime: rec.DateTime.UTC(),
		keyComment:  rec.Comment,
		keyUsername: rec.Username,
	}
	for k, v := range rec.Fields {
		doc[k] = v
	}
	_, err = coll.InsertOne(ctx, doc)
	return mapErr(err)
}

func (r *RecordsRepo) GetByID(ctx context.Context, kind records.Kind, id string) (records.Record, error) {
	coll, spec, err := r.collection(kind)
	if err != nil {
		return records.Record{}, err
	}
	oid, err := objectID(id)
	if err != nil {
		return records.Record{}, err
	}

	var doc bson.M
	if err := coll.FindOne(ctx, bson.M{keyID: oid}).Decode(&doc); err != nil {
		return records.Record{}, mapErr(err)
	}
	return recordFromDoc(spec, doc), nil
}

func (r *RecordsRepo) ListByPet(ctx context.Context, kind records.Kind, petID string, offset, limit int) ([]records.Record, error) {
	coll, spec, err := r.collection(kind)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: keyDateTime, Value: -1}, {Key: keyID, Value: -1}}).
		SetSkip(int64(max(offset, 0)))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := coll.Find(ctx, bson.M{keyPetID: petID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]records.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, recordFromDoc(spec, d))
	}
	return out, nil
}

func (r *RecordsRepo) CountByPet(ctx context.Context, kind records.Kind, petID string) (int, error) {
	coll, _, err := r.collection(kind)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.M{keyPetID: petID})
	return int(n), err
}

func (r *RecordsRepo) Update(ctx context.Context, kind records.Kind, id string, patch records.Patch) error {
	coll, _, err := r.collection(kind)
	if err != nil {
		return err
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{}
	for k, v := range patch.Set {
		set[k] = v
	}
	if patch.DateTime != nil {
		set[keyDateTime] = patch.DateTime.UTC()
	}
	if patch.Comment != nil {
		set[keyComment] = *patch.Comment
	}
	unset := bson.M{}
	for _, k := range patch.Unset {
		unset[k] = ""
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(update) == 0 {
		return nil
	}
	return matched(coll.UpdateOne(ctx, bson.M{keyID: oid}, update))
}

func (r *RecordsRepo) Delete(ctx context.Context, kind records.Kind, id string) error {
	coll, _, err := r.collection(kind)
	if err != nil {
		return err
	}
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return deleted(coll.DeleteOne(ctx, bson.M{keyID: oid}))
}

// recordFromDoc toma solo los campos declarados del tipo; los números
// heredados (int32/int64) se pasan a float64.
func recordFromDoc(spec records.KindSpec, doc bson.M) records.Record {
	rec := records.Record{
		Kind:   spec.Kind,
		Fields: map[string]any{},
	}
	if oid, ok := doc[keyID].(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	rec.PetID, _ = doc[keyPetID].(string)
	rec.Comment, _ = doc[keyComment].(string)
	rec.Username, _ = doc[keyUsername].(string)

	switch dt := doc[keyDateTime].(type) {
	case primitive.DateTime:
		rec.DateTime = dt.Time().UTC()
	case time.Time:
		rec.DateTime = dt.UTC()
	}

	for _, f := range spec.Fields {
		v, ok := doc[f.Name]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case int32:
			v = float64(n)
		case int64:
			v = float64(n)
		}
		rec.Fields[f.Name] = v
	}
	return rec
}
