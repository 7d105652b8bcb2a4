package repositories

import (
	"go.mongodb.org/mongo-driver/bson"
)

func projectFilter(q ProjectQuery) bson.M {
	f := bson.M{}
	if len(q.IDs) > 0 {
		f["_id"] = bson.M{"$in": q.IDs}
	}
	if len(q.Statuses) > 0 {
		f["status"] = bson.M{"$in": q.Statuses}
	}
	if q.Member != nil {
		f["$or"] = bson.A{
			bson.M{"manager_id": *q.Member},
			bson.M{"owner_id": *q.Member},
			bson.M{"team_members": *q.Member},
		}
	}
	return f
}

func taskFilter(q TaskQuery) bson.M {
	f := bson.M{}
	if q.ProjectID != nil {
		f["project_id"] = *q.ProjectID
	}
	if len(q.IDs) > 0 {
		f["_id"] = bson.M{"$in": q.IDs}
	}
	if len(q.Statuses) > 0 {
		f["status"] = bson.M{"$in": q.Statuses}
	}
	if q.DependsOn != nil {
		f["dependencies"] = *q.DependsOn
	}
	return f
}

func expenseFilter(q ExpenseQuery) bson.M {
	f := bson.M{}
	if q.ProjectID != nil {
		f["project_id"] = *q.ProjectID
	}
	return f
}

func notificationFilter(q NotificationQuery) bson.M {
	f := bson.M{}
	if q.SubjectType != "" {
		f["subject_type"] = q.SubjectType
	}
	if q.SubjectID != nil {
		f["subject_id"] = *q.SubjectID
	}
	if q.ProjectID != nil {
		f["project_id"] = *q.ProjectID
	}
	if q.Kind != "" {
		f["kind"] = q.Kind
	}
	if q.UserID != nil {
		f["user_id"] = *q.UserID
	}
	if q.IsRead != nil {
		f["is_read"] = *q.IsRead
	}
	return f
}

func userFilter(q UserQuery) bson.M {
	f := bson.M{}
	if len(q.IDs) > 0 {
		f["_id"] = bson.M{"$in": q.IDs}
	}
	if q.Role != "" {
		f["role"] = q.Role
	}
	return f
}
