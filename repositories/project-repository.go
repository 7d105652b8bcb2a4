package repositories

import (
	"context"
	"time"

	"gestion-proyectos/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ProjectRepo struct {
	c collection
}

func (r *ProjectRepo) Insert(ctx context.Context, p *models.Project) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	return r.c.run(func() error {
		_, err := r.c.coll.InsertOne(ctx, p)
		return err
	})
}

func (r *ProjectRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := r.c.findOne(ctx, bson.M{"_id": id}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) Find(ctx context.Context, q ProjectQuery) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return findAll[models.Project](ctx, r.c, projectFilter(q), opts)
}

func (r *ProjectRepo) Count(ctx context.Context, q ProjectQuery) (int64, error) {
	return r.c.count(ctx, projectFilter(q))
}

func (r *ProjectRepo) UpdateByID(ctx context.Context, p *models.Project) error {
	return r.c.replace(ctx, bson.M{"_id": p.ID}, p)
}

func (r *ProjectRepo) SetProgress(ctx context.Context, id primitive.ObjectID, progress int) error {
	return r.c.updateSet(ctx, bson.M{"_id": id}, bson.M{"progress": progress, "updated_at": time.Now().UTC()})
}

func (r *ProjectRepo) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	return r.c.deleteOne(ctx, bson.M{"_id": id})
}

// Ping checks the database behind the projects collection.
func (r *ProjectRepo) Ping(ctx context.Context) error {
	return r.c.run(func() error {
		return r.c.coll.Database().Client().Ping(ctx, nil)
	})
}
