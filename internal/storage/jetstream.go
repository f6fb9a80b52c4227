package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const contentTypeHeader = "Content-Type"

// JetStreamStore keeps objects in a NATS JetStream object store bucket.
type JetStreamStore struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	store  jetstream.ObjectStore
	bucket string
}

func NewJetStreamStore(url, bucket string, connectTimeout time.Duration) (*JetStreamStore, error) {
	conn, err := nats.Connect(url, nats.Timeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	return &JetStreamStore{
		conn:   conn,
		js:     js,
		bucket: bucket,
	}, nil
}

// Init opens the bucket, creating it on first use.
func (s *JetStreamStore) Init(ctx context.Context) error {
	store, err := s.js.ObjectStore(ctx, s.bucket)
	if err == nil {
		s.store = store
		return nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return fmt.Errorf("failed to open object store bucket: %w", err)
	}

	store, err = s.js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      s.bucket,
		Description: "profile media",
	})
	if err != nil {
		return fmt.Errorf("failed to create object store bucket: %w", err)
	}
	s.store = store
	return nil
}

func (s *JetStreamStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	meta := jetstream.ObjectMeta{
		Name: key,
		Headers: nats.Header{
			contentTypeHeader: []string{contentType},
		},
	}

	_, err := s.store.Put(ctx, meta, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func (s *JetStreamStore) Get(ctx context.Context, key string) (*Object, error) {
	result, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer result.Close()

	data, err := io.ReadAll(result)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	info, err := result.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to get object info: %w", err)
	}

	return &Object{
		Data:        data,
		ContentType: info.Headers.Get(contentTypeHeader),
	}, nil
}

func (s *JetStreamStore) Delete(ctx context.Context, key string) error {
	err := s.store.Delete(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (s *JetStreamStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	infos, err := s.store.List(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoObjectsFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	objects := make([]ObjectInfo, 0, len(infos))
	for _, info := range infos {
		if info.Deleted || !strings.HasPrefix(info.Name, prefix) {
			continue
		}
		objects = append(objects, ObjectInfo{
			Key:     info.Name,
			Size:    info.Size,
			ModTime: info.ModTime,
		})
	}
	return objects, nil
}

func (s *JetStreamStore) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
