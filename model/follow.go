package models

import "time"

// FollowEdge is one mirror of a directed follow relationship, as stored in a
// user's following or followers set.
type FollowEdge struct {
	OwnerUID       string    `json:"owner_uid" db:"owner_uid" firestore:"-"`
	CounterpartUID string    `json:"counterpart_uid" db:"counterpart_uid" firestore:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at" firestore:"timestamp"`
}

// FollowCounts is a snapshot of both counters of a profile.
type FollowCounts struct {
	UID       string `json:"uid"`
	Followers int64  `json:"followers"`
	Following int64  `json:"following"`
}
