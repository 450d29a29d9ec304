package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rewritebot/common"
)

// S3Store writes each document as {prefix}{collection}/{id}.json with a
// conditional put, so an existing key is never overwritten.
type S3Store struct {
	s3     *common.S3
	bucket string
	prefix string
}

func NewS3Store(client *common.S3, bucket, prefix string) *S3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Store{s3: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(collection, id string) string {
	return s.prefix + collection + "/" + id + ".json"
}

func (s *S3Store) Create(ctx context.Context, collection, id string, doc Document) error {
	body, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	err = s.s3.PutIfAbsent(ctx, s.bucket, s.key(collection, id), body)
	if errors.Is(err, common.ErrObjectExists) {
		return ErrAlreadyExists
	}
	return err
}

func (s *S3Store) Get(ctx context.Context, collection, id string) (Document, error) {
	body, err := s.s3.GetBytes(ctx, s.bucket, s.key(collection, id))
	if common.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeDocument(body)
}

func (s *S3Store) Ping(ctx context.Context) error {
	return s.s3.BucketReachable(ctx, s.bucket)
}

func (s *S3Store) Close() error { return nil }
