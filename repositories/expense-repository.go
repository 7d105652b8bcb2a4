package repositories

import (
	"context"

	"gestion-proyectos/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ExpenseRepo struct {
	c collection
}

func (r *ExpenseRepo) Insert(ctx context.Context, e *models.Expense) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	return r.c.run(func() error {
		_, err := r.c.coll.InsertOne(ctx, e)
		return err
	})
}

func (r *ExpenseRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Expense, error) {
	var e models.Expense
	if err := r.c.findOne(ctx, bson.M{"_id": id}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ExpenseRepo) Find(ctx context.Context, q ExpenseQuery) ([]models.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return findAll[models.Expense](ctx, r.c, expenseFilter(q), opts)
}

func (r *ExpenseRepo) UpdateByID(ctx context.Context, e *models.Expense) error {
	return r.c.replace(ctx, bson.M{"_id": e.ID}, e)
}

func (r *ExpenseRepo) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	return r.c.deleteOne(ctx, bson.M{"_id": id})
}
