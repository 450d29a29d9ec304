package storage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"rewritebot/common"
)

// Open selects a backend from a store identifier:
//
//	firestore://<project>
//	s3://<bucket>/<prefix>?region=..&endpoint=..&path_style=true
//	sqlite://<path>
//	memory://
func Open(ctx context.Context, store, serviceAccountPath string) (DocumentStore, error) {
	switch {
	case strings.HasPrefix(store, "memory://"):
		return NewMemoryStore(), nil

	case strings.HasPrefix(store, "sqlite://"):
		db, err := common.OpenSQLite(common.SQLitePath(store))
		if err != nil {
			return nil, err
		}
		s, err := NewSQLiteStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil

	case strings.HasPrefix(store, "firestore://"):
		project := strings.Trim(strings.TrimPrefix(store, "firestore://"), "/")
		if project == "" {
			return nil, fmt.Errorf("store %q has no project id", store)
		}
		return NewFirestoreStore(ctx, project, serviceAccountPath)

	case strings.HasPrefix(store, "s3://"):
		u, err := url.Parse(store)
		if err != nil {
			return nil, fmt.Errorf("invalid s3 store %q: %w", store, err)
		}
		q := u.Query()
		pathStyle, _ := strconv.ParseBool(q.Get("path_style"))
		client, err := common.NewS3(ctx, common.S3Config{
			Region:       q.Get("region"),
			Profile:      q.Get("profile"),
			Endpoint:     q.Get("endpoint"),
			UsePathStyle: pathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("unable to load SDK config: %w", err)
		}
		return NewS3Store(client, u.Host, strings.TrimPrefix(u.Path, "/")), nil
	}
	return nil, fmt.Errorf("unsupported store %q", store)
}
