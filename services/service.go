package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clock supplies the current time to the services.
type Clock func() time.Time

func SystemClock() time.Time { return time.Now().UTC() }

// StartOfDay truncates t to midnight in t's own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// lookupErr turns a missing document into a NotFound domain error and wraps
// everything else.
func lookupErr(err error, what string, id primitive.ObjectID) error {
	if errors.Is(err, repositories.ErrNoDocument) {
		return models.NotFoundf("%s %s not found", what, id.Hex())
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// visibleProject loads a project the identity is allowed to see.
func visibleProject(ctx context.Context, projects repositories.ProjectRepository, who models.Identity, id primitive.ObjectID) (*models.Project, error) {
	p, err := projects.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "project", id)
	}
	if !who.Can(models.CapViewAll) && !p.Involves(who.UserID) {
		return nil, models.Forbiddenf("project %s is not visible to this user", id.Hex())
	}
	return p, nil
}

func checkDates(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return models.Validationf("end date %s is before start date %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return models.Validationf("%s is required", field)
	}
	return nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
