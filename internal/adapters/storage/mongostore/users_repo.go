package mongostore

import (
	"context"
	"time"

	"pet-health-tracker/internal/domain/users"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password_hash"`
	FullName     string             `bson:"full_name,omitempty"`
	Email        string             `bson:"email,omitempty"`
	IsActive     bool               `bson:"is_active"`
	CreatedAt    time.Time          `bson:"created_at"`
	CreatedBy    string             `bson:"created_by,omitempty"`
}

func (d userDoc) toDomain() users.User {
	return users.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Email:        d.Email,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt.UTC(),
		CreatedBy:    d.CreatedBy,
	}
}

// UsersRepo depende del índice único de username (EnsureIndexes) para ErrDuplicate.
type UsersRepo struct {
	coll *mongo.Collection
}

func NewUsersRepo(db *mongo.Database) *UsersRepo {
	return &UsersRepo{coll: db.Collection(usersCollection)}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, userDoc{
		ID:           oid,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Email:        u.Email,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		CreatedBy:    u.CreatedBy,
	})
	return mapErr(err)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return users.User{}, mapErr(err)
	}
	return doc.toDomain(), nil
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "username", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]users.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *UsersRepo) Update(ctx context.Context, username string, patch users.Patch) error {
	set := bson.M{}
	if patch.FullName != nil {
		set["full_name"] = *patch.FullName
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.IsActive != nil {
		set["is_active"] = *patch.IsActive
	}
	if len(set) == 0 {
		return nil
	}
	return matched(r.coll.UpdateOne(ctx, bson.M{"username": username}, bson.M{"$set": set}))
}

func (r *UsersRepo) SetPasswordHash(ctx context.Context, username, hash string) error {
	return matched(r.coll.UpdateOne(ctx, bson.M{"username": username}, bson.M{"$set": bson.M{"password_hash": hash}}))
}
