package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"alightgram/model"
	"alightgram/repository"
)

type projectRepository struct {
	client *firestore.Client
}

func NewProjectRepository(client *firestore.Client) repository.ProjectRepository {
	return &projectRepository{client: client}
}

func (r *projectRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(projectsCollection)
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	_, err := r.collection().Doc(project.ID).Create(ctx, project)
	return translate(err, "create project")
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	snap, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		return nil, translate(err, "get project")
	}
	return decodeProject(snap)
}

func (r *projectRepository) Update(ctx context.Context, id string, update models.ProjectUpdate) error {
	updates := []firestore.Update{{Path: "updatedAt", Value: time.Now()}}

	if update.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *update.Title})
	}
	if update.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *update.Description})
	}
	if update.XMLContent != nil {
		updates = append(updates, firestore.Update{Path: "xmlContent", Value: *update.XMLContent})
	}
	if update.IsPublic != nil {
		updates = append(updates, firestore.Update{Path: "isPublic", Value: *update.IsPublic})
	}
	if update.Tags != nil {
		updates = append(updates, firestore.Update{Path: "tags", Value: update.Tags})
	}
	if update.VideoURL != nil {
		updates = append(updates, firestore.Update{Path: "videoUrl", Value: *update.VideoURL})
	}
	if update.ThumbnailURL != nil {
		updates = append(updates, firestore.Update{Path: "thumbnailUrl", Value: *update.ThumbnailURL})
	}

	_, err := r.collection().Doc(id).Update(ctx, updates)
	return translate(err, "update project")
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection().Doc(id).Delete(ctx, firestore.Exists)
	return translate(err, "delete project")
}

func (r *projectRepository) ListByOwner(ctx context.Context, ownerUID string, publicOnly bool) ([]models.Project, error) {
	query := r.collection().Where("userId", "==", ownerUID)
	if publicOnly {
		query = query.Where("isPublic", "==", true)
	}
	return r.query(ctx, query)
}

func (r *projectRepository) ListPublic(ctx context.Context) ([]models.Project, error) {
	return r.query(ctx, r.collection().Where("isPublic", "==", true))
}

func (r *projectRepository) IncrementLikes(ctx context.Context, id string, delta int64) error {
	ref := r.collection().Doc(id)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var likes int64
		if v, err := snap.DataAt("likes"); err == nil {
			if n, ok := v.(int64); ok {
				likes = n
			}
		}
		likes += delta
		if likes < 0 {
			likes = 0
		}
		return tx.Update(ref, []firestore.Update{{Path: "likes", Value: likes}})
	})
	return translate(err, "increment likes")
}

func (r *projectRepository) query(ctx context.Context, query firestore.Query) ([]models.Project, error) {
	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, translate(err, "list projects")
	}

	projects := make([]models.Project, 0, len(snaps))
	for _, snap := range snaps {
		project, err := decodeProject(snap)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *project)
	}
	return projects, nil
}

func decodeProject(snap *firestore.DocumentSnapshot) (*models.Project, error) {
	var project models.Project
	if err := snap.DataTo(&project); err != nil {
		return nil, translate(err, "decode project")
	}
	project.ID = snap.Ref.ID
	return &project, nil
}
