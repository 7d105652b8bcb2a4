package workflow

import (
	"math"

	"gestion-proyectos/backend/models"
)

// CanComplete reports whether every dependency in deps is Completed. An
// empty set never blocks.
func CanComplete(task models.Task, deps []models.Task) bool {
	return len(BlockingDependencies(task, deps)) == 0
}

// BlockingDependencies returns the members of deps that task declares and
// that are not Completed. Tasks in deps that task does not reference are
// ignored.
func BlockingDependencies(task models.Task, deps []models.Task) []models.Task {
	var blocking []models.Task
	for _, d := range deps {
		if !task.DependsOn(d.ID) {
			continue
		}
		if d.Status != models.StatusCompleted {
			blocking = append(blocking, d)
		}
	}
	return blocking
}

// CanDelete reports whether no task in all lists task as a dependency.
func CanDelete(task models.Task, all []models.Task) bool {
	return len(Dependents(task, all)) == 0
}

// Dependents returns the tasks in all that depend on task.
func Dependents(task models.Task, all []models.Task) []models.Task {
	var out []models.Task
	for _, t := range all {
		if t.ID == task.ID {
			continue
		}
		if t.DependsOn(task.ID) {
			out = append(out, t)
		}
	}
	return out
}

func Titles(tasks []models.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

// Progress returns round(100*completed/total), or 0 for an empty project.
func Progress(total, completed int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// ProgressOf counts the Completed tasks in tasks and returns Progress.
func ProgressOf(tasks []models.Task) int {
	completed := 0
	for _, t := range tasks {
		if t.Status == models.StatusCompleted {
			completed++
		}
	}
	return Progress(len(tasks), completed)
}
