// Package store contains entities and services to persist them.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is an error that is returned when the requested entity is not found.
var ErrNotFound = errors.New("not found")

// Article is a single normalized headline, assembled from one feed entry.
type Article struct {
	Source      SourceRef `json:"source"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	URLToImage  string    `json:"urlToImage"`
	PublishedAt string    `json:"publishedAt"`
	Content     string    `json:"content"`
}

// SourceRef identifies the feed source an article came from.
type SourceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is a set of aggregated articles for one cache key,
// mirrored to durable storage.
type Snapshot struct {
	Timestamp int64     `json:"timestamp"`
	Data      []Article `json:"data"`
}

// SnapshotStore defines methods for persisting aggregation snapshots.
type SnapshotStore interface {
	Put(ctx context.Context, key string, snap Snapshot) error
	Get(ctx context.Context, key string) (Snapshot, error)
	Close() error
}
