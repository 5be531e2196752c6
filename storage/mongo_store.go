package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"open-homes-api/models"
	"open-homes-api/utils"
)

// openHomeDocument is the stored shape. The listing id doubles as _id, so the
// internal id and the listing id are the same value in this backend.
type openHomeDocument struct {
	ListingID    int64     `bson:"_id"`
	Title        string    `bson:"title"`
	Location     string    `bson:"location"`
	Bedrooms     int       `bson:"bedrooms"`
	Bathrooms    int       `bson:"bathrooms"`
	OpenHomeTime time.Time `bson:"open_home_time"`
	Price        string    `bson:"price"`
	PictureHref  string    `bson:"picture_href"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toDocument(s models.OpenHomeSummary, now time.Time) openHomeDocument {
	return openHomeDocument{
		ListingID:    s.ListingID,
		Title:        s.Title,
		Location:     s.Location,
		Bedrooms:     s.Bedrooms,
		Bathrooms:    s.Bathrooms,
		OpenHomeTime: s.OpenHomeTime.UTC(),
		Price:        s.Price,
		PictureHref:  s.PictureHref,
		UpdatedAt:    now,
	}
}

func (d openHomeDocument) summary() models.OpenHomeSummary {
	return models.OpenHomeSummary{
		ID:           d.ListingID,
		ListingID:    d.ListingID,
		Title:        d.Title,
		Location:     d.Location,
		Bedrooms:     d.Bedrooms,
		Bathrooms:    d.Bathrooms,
		OpenHomeTime: d.OpenHomeTime,
		Price:        d.Price,
		PictureHref:  d.PictureHref,
	}
}

// MongoStore persists open homes to a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects, waits for the primary to answer, and ensures the
// open_home_time index exists.
func NewMongoStore(ctx context.Context, uri, database, collection string, retry *utils.RetryConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	err = retry.Do(ctx, "mongo-ping", func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: %w", err)
	}

	store, err := NewMongoStoreFromCollection(ctx, client.Database(database).Collection(collection))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// NewMongoStoreFromCollection wraps an existing collection and ensures the
// open_home_time index exists.
func NewMongoStoreFromCollection(ctx context.Context, coll *mongo.Collection) (*MongoStore, error) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "open_home_time", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo: create index: %w", err)
	}
	return &MongoStore{client: coll.Database().Client(), collection: coll}, nil
}

// Upsert replaces each document keyed by listing id, inserting when absent.
func (ms *MongoStore) Upsert(ctx context.Context, summaries []models.OpenHomeSummary) (int64, error) {
	rows := keyable(summaries)
	if len(rows) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(rows))
	for _, s := range rows {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": s.ListingID}).
			SetReplacement(toDocument(s, now)).
			SetUpsert(true))
	}

	if _, err := ms.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return 0, fmt.Errorf("mongo: upsert: %w", err)
	}
	// Every replacement either matched or was upserted.
	return int64(len(rows)), nil
}

// FetchAll retrieves all stored open homes, soonest first.
func (ms *MongoStore) FetchAll(ctx context.Context) ([]models.OpenHomeSummary, error) {
	opts := options.Find().SetSort(bson.D{{Key: "open_home_time", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := ms.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: fetch all: %w", err)
	}

	var docs []openHomeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode: %w", err)
	}

	summaries := make([]models.OpenHomeSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, d.summary())
	}
	return summaries, nil
}

func (ms *MongoStore) FetchOne(ctx context.Context, id string) (*models.OpenHomeSummary, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}

	var doc openHomeDocument
	err = ms.collection.FindOne(ctx, bson.M{"_id": n}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: fetch one: %w", err)
	}

	s := doc.summary()
	return &s, nil
}

func (ms *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return ms.client.Disconnect(ctx)
}
