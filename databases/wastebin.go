package databases

// go generate: mockery --name WasteBinDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ecotrackhq/ecotrack-api/models"
)

const wasteBinName = "wastebins"

// WasteBinDatabase contains the methods to use with the waste bin database
type WasteBinDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.WasteBin, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.WasteBin, error)
	InsertOne(ctx context.Context, bin models.WasteBin, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}) (CursorHelper, error)
}

type wasteBinDatabase struct {
	db DatabaseHelper
}

// NewWasteBinDatabase initializes a new instance of waste bin database with the provided db connection
func NewWasteBinDatabase(db DatabaseHelper) WasteBinDatabase {
	return &wasteBinDatabase{
		db: db,
	}
}

func (b *wasteBinDatabase) FindOne(ctx context.Context, filter interface{}) (*models.WasteBin, error) {
	bin := &models.WasteBin{}
	err := b.db.Collection(wasteBinName).FindOne(ctx, filter).Decode(&bin)
	if err != nil {
		return nil, err
	}
	return bin, nil
}

func (b *wasteBinDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.WasteBin, error) {
	var bins []models.WasteBin
	cur, err := b.db.Collection(wasteBinName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.Decode(&bins)
	if err != nil {
		return nil, err
	}
	return bins, nil
}

func (b *wasteBinDatabase) InsertOne(ctx context.Context, bin models.WasteBin, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := b.db.Collection(wasteBinName).InsertOne(ctx, bin, opts...)
	return res, err
}

func (b *wasteBinDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return b.db.Collection(wasteBinName).UpdateOne(ctx, filter, update, opts...)
}

func (b *wasteBinDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	return b.db.Collection(wasteBinName).DeleteOne(ctx, filter, opts...)
}

func (b *wasteBinDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return b.db.Collection(wasteBinName).CountDocuments(ctx, filter, opts...)
}

func (b *wasteBinDatabase) Aggregate(ctx context.Context, pipeline interface{}) (CursorHelper, error) {
	return b.db.Collection(wasteBinName).Aggregate(ctx, pipeline)
}
