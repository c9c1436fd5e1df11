package mongostore

import (
	"context"
	"errors"
	"io"

	"pet-health-tracker/internal/domain/pets"
	"pet-health-tracker/internal/ports/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxPhotoBytes = 10 << 20

// PhotoStore guarda las fotos en GridFS; content_type va en metadata.
type PhotoStore struct {
	bucket *gridfs.Bucket
}

func NewPhotoStore(db *mongo.Database) (*PhotoStore, error) {
	b, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(photosBucket))
	if err != nil {
		return nil, err
	}
	return &PhotoStore{bucket: b}, nil
}

type photoMeta struct {
	ContentType string `bson:"content_type"`
}

func (s *PhotoStore) Save(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if dl, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetWriteDeadline(dl); err != nil {
			return "", err
		}
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "content_type", Value: contentType}})
	id, err := s.bucket.UploadFromStream(filename, io.LimitReader(r, maxPhotoBytes), opts)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

func (s *PhotoStore) Open(ctx context.Context, id string) (pets.Photo, error) {
	oid, err := objectID(id)
	if err != nil {
		return pets.Photo{}, err
	}
	if dl, ok := ctx.Deadline(); ok {
		if err := s.bucket.SetReadDeadline(dl); err != nil {
			return pets.Photo{}, err
		}
	}

	stream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return pets.Photo{}, storage.ErrNotFound
		}
		return pets.Photo{}, err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return pets.Photo{}, err
	}

	file := stream.GetFile()
	p := pets.Photo{ID: id, Filename: file.Name, Data: data}
	var meta photoMeta
	if len(file.Metadata) > 0 && bson.Unmarshal(file.Metadata, &meta) == nil {
		p.ContentType = meta.ContentType
	}
	return p, nil
}

func (s *PhotoStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if err := s.bucket.DeleteContext(ctx, oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return storage.ErrNotFound
		}
		return err
	}
	return nil
}
