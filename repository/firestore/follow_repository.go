package firestore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"alightgram/model"
	"alightgram/repository"
)

type followRepository struct {
	client *firestore.Client
}

func NewFollowRepository(client *firestore.Client) repository.FollowRepository {
	return &followRepository{client: client}
}

func (r *followRepository) edge(owner, set, counterpart string) *firestore.DocumentRef {
	return r.client.Collection(usersCollection).Doc(owner).Collection(set).Doc(counterpart)
}

func (r *followRepository) AddFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	return r.add(ctx, r.edge(uid, followingCollection, targetUID))
}

func (r *followRepository) RemoveFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	return r.remove(ctx, r.edge(uid, followingCollection, targetUID))
}

func (r *followRepository) AddFollower(ctx context.Context, uid, followerUID string) (bool, error) {
	return r.add(ctx, r.edge(uid, followersCollection, followerUID))
}

func (r *followRepository) RemoveFollower(ctx context.Context, uid, followerUID string) (bool, error) {
	return r.remove(ctx, r.edge(uid, followersCollection, followerUID))
}

func (r *followRepository) IsFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	snap, err := r.edge(uid, followingCollection, targetUID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "check follow")
	}
	return snap.Exists(), nil
}

func (r *followRepository) ListFollowing(ctx context.Context, uid string) ([]models.FollowEdge, error) {
	return r.list(ctx, uid, followingCollection)
}

func (r *followRepository) ListFollowers(ctx context.Context, uid string) ([]models.FollowEdge, error) {
	return r.list(ctx, uid, followersCollection)
}

// add creates the edge document. An existing document means nothing changed.
func (r *followRepository) add(ctx context.Context, ref *firestore.DocumentRef) (bool, error) {
	_, err := ref.Create(ctx, map[string]interface{}{"timestamp": firestore.ServerTimestamp})
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "add follow edge")
	}
	return true, nil
}

func (r *followRepository) remove(ctx context.Context, ref *firestore.DocumentRef) (bool, error) {
	_, err := ref.Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, translate(err, "remove follow edge")
	}
	return true, nil
}

func (r *followRepository) list(ctx context.Context, uid, set string) ([]models.FollowEdge, error) {
	snaps, err := r.client.Collection(usersCollection).Doc(uid).Collection(set).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate(err, "list "+set)
	}

	edges := make([]models.FollowEdge, 0, len(snaps))
	for _, snap := range snaps {
		edge := models.FollowEdge{OwnerUID: uid, CounterpartUID: snap.Ref.ID}
		if ts, ok := snap.Data()["timestamp"].(time.Time); ok {
			edge.CreatedAt = ts
		}
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].CreatedAt.After(edges[j].CreatedAt) })
	return edges, nil
}
