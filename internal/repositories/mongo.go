package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"kediacrm/internal/logger"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

// MongoStore owns the client shared by the user and task repositories.
type MongoStore struct {
	cli     *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

func NewMongoStore(ctx context.Context, uri, dbName string, timeout time.Duration) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeout).
		SetSocketTimeout(45 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{cli: client, db: client.Database(dbName), timeout: timeout}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("Repository: connected to MongoDB", zap.String("database", dbName))
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}

	_, err = s.db.Collection(tasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "givenTo", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create tasks.givenTo index: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.cli.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Disconnect(ctx context.Context) error {
	logger.Info("Repository: closing MongoDB connection")
	return s.cli.Disconnect(ctx)
}

func (s *MongoStore) Tasks() *TaskMongo {
	return &TaskMongo{store: s, coll: s.db.Collection(tasksCollection)}
}

func (s *MongoStore) Users() *UserMongo {
	return &UserMongo{store: s, coll: s.db.Collection(usersCollection)}
}

// objectID parses a hex id. ok is false for ids that cannot exist in the store.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func hexOrEmpty(oid primitive.ObjectID) string {
	if oid.IsZero() {
		return ""
	}
	return oid.Hex()
}

var sortByID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)
