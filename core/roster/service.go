package roster

import (
	"context"
	"errors"
)

var (
	// errors
	ErrClassNotFound = errors.New("class not found")
)

type (
	Repository interface {
		GetClassByID(ctx context.Context, id string) (Class, error)
		GetClassesByID(ctx context.Context, ids ...string) ([]Class, error)
		// ListClassStudentIDs returns the ids of currently enrolled students, ordered by id.
		ListClassStudentIDs(ctx context.Context, classID string) ([]string, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns the current enrollment of a class. The result reflects the
// source of truth on every call; nothing is cached across calls.
func (svc *Service) Resolve(ctx context.Context, classID string) ([]string, error) {
	if _, err := svc.repo.GetClassByID(ctx, classID); err != nil {
		return nil, err
	}
	return svc.repo.ListClassStudentIDs(ctx, classID)
}

func (svc *Service) GetClass(ctx context.Context, classID string) (Class, error) {
	return svc.repo.GetClassByID(ctx, classID)
}

// ClassLabels resolves classes in bulk for display enrichment. A missing class
// degrades to a placeholder entry, never an error.
func (svc *Service) ClassLabels(ctx context.Context, classIDs ...string) (map[string]Class, error) {
	labels := make(map[string]Class, len(classIDs))
	if len(classIDs) == 0 {
		return labels, nil
	}

	classes, err := svc.repo.GetClassesByID(ctx, classIDs...)
	if err != nil {
		return nil, err
	}
	for _, cls := range classes {
		labels[cls.ID] = cls
	}
	for _, id := range classIDs {
		if _, ok := labels[id]; !ok {
			labels[id] = Class{ID: id, Name: PlaceholderClassName}
		}
	}
	return labels, nil
}
