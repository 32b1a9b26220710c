package domain

import "time"

// Assignment records a uid handed out during a run.
type Assignment struct {
	Username string `json:"username" bson:"username"`
	UID      uint64 `json:"uid" bson:"uid"`
}

// SyncRun summarises one pass of the pipeline.
type SyncRun struct {
	StartedAt     time.Time    `json:"started_at" bson:"started_at"`
	FinishedAt    time.Time    `json:"finished_at" bson:"finished_at"`
	RolesFetched  int          `json:"roles_fetched" bson:"roles_fetched"`
	UsersFetched  int          `json:"users_fetched" bson:"users_fetched"`
	UsersRendered int          `json:"users_rendered" bson:"users_rendered"`
	Assigned      []Assignment `json:"assigned" bson:"assigned"`
	Changed       bool         `json:"changed" bson:"changed"`
	Error         string       `json:"error,omitempty" bson:"error,omitempty"`
}

// Duration is the wall time of the run.
func (r *SyncRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
