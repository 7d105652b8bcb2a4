package repositories

import (
	"context"

	"gestion-proyectos/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepo struct {
	c collection
}

func (r *NotificationRepo) Insert(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	return r.c.run(func() error {
		_, err := r.c.coll.InsertOne(ctx, n)
		return err
	})
}

func (r *NotificationRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	if err := r.c.findOne(ctx, bson.M{"_id": id}, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Find returns matching notifications, newest first.
func (r *NotificationRepo) Find(ctx context.Context, q NotificationQuery) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findAll[models.Notification](ctx, r.c, notificationFilter(q), opts)
}

func (r *NotificationRepo) Count(ctx context.Context, q NotificationQuery) (int64, error) {
	return r.c.count(ctx, notificationFilter(q))
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	return r.c.updateSet(ctx, bson.M{"_id": id}, bson.M{"is_read": true})
}

func (r *NotificationRepo) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	return r.c.deleteOne(ctx, bson.M{"_id": id})
}

func (r *NotificationRepo) DeleteMany(ctx context.Context, q NotificationQuery) (int64, error) {
	return r.c.deleteMany(ctx, notificationFilter(q))
}
