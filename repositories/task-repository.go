package repositories

import (
	"context"
	"time"

	"gestion-proyectos/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TaskRepo struct {
	c collection
}

func (r *TaskRepo) Insert(ctx context.Context, t *models.Task) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.Dependencies == nil {
		t.Dependencies = []primitive.ObjectID{}
	}
	return r.c.run(func() error {
		_, err := r.c.coll.InsertOne(ctx, t)
		return err
	})
}

func (r *TaskRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := r.c.findOne(ctx, bson.M{"_id": id}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) Find(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return findAll[models.Task](ctx, r.c, taskFilter(q), opts)
}

func (r *TaskRepo) Count(ctx context.Context, q TaskQuery) (int64, error) {
	return r.c.count(ctx, taskFilter(q))
}

func (r *TaskRepo) UpdateByID(ctx context.Context, t *models.Task) error {
	if t.Dependencies == nil {
		t.Dependencies = []primitive.ObjectID{}
	}
	return r.c.replace(ctx, bson.M{"_id": t.ID}, t)
}

func (r *TaskRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status models.Status, at time.Time) error {
	return r.c.updateSet(ctx, bson.M{"_id": id}, bson.M{"status": status, "updated_at": at})
}

func (r *TaskRepo) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	return r.c.deleteOne(ctx, bson.M{"_id": id})
}

func (r *TaskRepo) DeleteMany(ctx context.Context, q TaskQuery) (int64, error) {
	return r.c.deleteMany(ctx, taskFilter(q))
}
