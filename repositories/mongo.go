package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gestion-proyectos/backend/logging"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	projectsCollection      = "projects"
	tasksCollection         = "tasks"
	expensesCollection      = "expenses"
	notificationsCollection = "notifications"
	usersCollection         = "users"
)

// collection pairs a mongo collection with the circuit breaker guarding it.
// Missing documents and duplicate keys are answers, not outages, so they do
// not count against the breaker.
type collection struct {
	coll *mongo.Collection
	cb   *gobreaker.CircuitBreaker
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, ErrNoDocument) || mongo.IsDuplicateKeyError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func newCollection(db *mongo.Database, name string) collection {
	return collection{coll: db.Collection(name), cb: newBreaker(name + "-cb")}
}

func (c collection) run(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (c collection) findOne(ctx context.Context, filter bson.M, out interface{}) error {
	return c.run(func() error {
		err := c.coll.FindOne(ctx, filter).Decode(out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNoDocument
		}
		return err
	})
}

func (c collection) count(ctx context.Context, filter bson.M) (int64, error) {
	var n int64
	err := c.run(func() error {
		var err error
		n, err = c.coll.CountDocuments(ctx, filter)
		return err
	})
	return n, err
}

func (c collection) updateSet(ctx context.Context, filter bson.M, set bson.M) error {
	return c.run(func() error {
		res, err := c.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNoDocument
		}
		return nil
	})
}

func (c collection) replace(ctx context.Context, filter bson.M, doc interface{}) error {
	return c.run(func() error {
		res, err := c.coll.ReplaceOne(ctx, filter, doc)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrNoDocument
		}
		return nil
	})
}

func (c collection) deleteOne(ctx context.Context, filter bson.M) error {
	return c.run(func() error {
		res, err := c.coll.DeleteOne(ctx, filter)
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNoDocument
		}
		return nil
	})
}

func (c collection) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	var n int64
	err := c.run(func() error {
		res, err := c.coll.DeleteMany(ctx, filter)
		if err != nil {
			return err
		}
		n = res.DeletedCount
		return nil
	})
	return n, err
}

func findAll[T any](ctx context.Context, c collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	out := []T{}
	err := c.run(func() error {
		cursor, err := c.coll.Find(ctx, filter, opts...)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Connect opens a MongoDB client, verifies it with a ping and returns the
// collection-backed store.
func Connect(ctx context.Context, uri, dbName string) (*mongo.Client, *Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	if err := ensureIndexes(ctx, db); err != nil {
		logging.Logger.Warnf("Event ID: DB_INDEX_FAILED, Description: %v", err)
	}

	return client, NewMongoStore(db), nil
}

func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Projects:      &ProjectRepo{c: newCollection(db, projectsCollection)},
		Tasks:         &TaskRepo{c: newCollection(db, tasksCollection)},
		Expenses:      &ExpenseRepo{c: newCollection(db, expensesCollection)},
		Notifications: &NotificationRepo{c: newCollection(db, notificationsCollection)},
		Users:         &UserRepo{c: newCollection(db, usersCollection)},
	}
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		tasksCollection: {
			{Keys: bson.D{{Key: "project_id", Value: 1}}},
			{Keys: bson.D{{Key: "dependencies", Value: 1}}},
		},
		expensesCollection: {
			{Keys: bson.D{{Key: "project_id", Value: 1}}},
		},
		notificationsCollection: {
			{Keys: bson.D{
				{Key: "subject_type", Value: 1},
				{Key: "subject_id", Value: 1},
				{Key: "kind", Value: 1},
				{Key: "is_read", Value: 1},
			}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
