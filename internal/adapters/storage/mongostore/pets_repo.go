package mongostore

import (
	"context"
	"time"

	"pet-health-tracker/internal/domain/pets"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type petDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	Breed       string             `bson:"breed,omitempty"`
	Gender      string             `bson:"gender,omitempty"`
	BirthDate   *time.Time         `bson:"birth_date,omitempty"`
	PhotoFileID string             `bson:"photo_file_id,omitempty"`
	PhotoURL    string             `bson:"photo_url,omitempty"`
	Owner       string             `bson:"owner"`
	SharedWith  []string           `bson:"shared_with"`
	CreatedAt   time.Time          `bson:"created_at"`
	CreatedBy   string             `bson:"created_by"`
}

func (d petDoc) toDomain() pets.Pet {
	p := pets.Pet{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Breed:       d.Breed,
		Gender:      pets.Gender(d.Gender),
		PhotoFileID: d.PhotoFileID,
		PhotoURL:    d.PhotoURL,
		Owner:       d.Owner,
		SharedWith:  d.SharedWith,
		CreatedAt:   d.CreatedAt.UTC(),
		CreatedBy:   d.CreatedBy,
	}
	if d.BirthDate != nil {
		t := d.BirthDate.UTC()
		p.BirthDate = &t
	}
	if p.SharedWith == nil {
		p.SharedWith = []string{}
	}
	return p
}

type PetsRepo struct {
	coll *mongo.Collection
}

func NewPetsRepo(db *mongo.Database) *PetsRepo {
	return &PetsRepo{coll: db.Collection(petsCollection)}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return err
	}
	shared := p.SharedWith
	if shared == nil {
		shared = []string{}
	}
	_, err = r.coll.InsertOne(ctx, petDoc{
		ID:          oid,
		Name:        p.Name,
		Breed:       p.Breed,
		Gender:      string(p.Gender),
		BirthDate:   p.BirthDate,
		PhotoFileID: p.PhotoFileID,
		PhotoURL:    p.PhotoURL,
		Owner:       p.Owner,
		SharedWith:  shared,
		CreatedAt:   p.CreatedAt,
		CreatedBy:   p.CreatedBy,
	})
	return mapErr(err)
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	oid, err := objectID(id)
	if err != nil {
		return pets.Pet{}, err
	}
	var doc petDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return pets.Pet{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

func (r *PetsRepo) ListAccessible(ctx context.Context, username string) ([]pets.Pet, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner": username},
		bson.M{"shared_with": username},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []petDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]pets.Pet, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *PetsRepo) Update(ctx context.Context, id string, patch pets.Patch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	set := bson.M{}
	unset := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Breed != nil {
		set["breed"] = *patch.Breed
	}
	if patch.Gender != nil {
		set["gender"] = *patch.Gender
	}
	switch {
	case patch.BirthDate != nil:
		set["birth_date"] = *patch.BirthDate
	case patch.ClearBirthDate:
		unset["birth_date"] = ""
	}
	if patch.PhotoFileID != nil {
		set["photo_file_id"] = *patch.PhotoFileID
	}
	if patch.PhotoURL != nil {
		set["photo_url"] = *patch.PhotoURL
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
	return matched(r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update))
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return deleted(r.coll.DeleteOne(ctx, bson.M{"_id": oid}))
}

func (r *PetsRepo) AddShare(ctx context.Context, id, username string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return matched(r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$addToSet": bson.M{"shared_with": username}}))
}

func (r *PetsRepo) RemoveShare(ctx context.Context, id, username string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	return matched(r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$pull": bson.M{"shared_with": username}}))
}
