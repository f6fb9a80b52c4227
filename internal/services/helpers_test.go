package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-todo-tenants/internal/identity"
	"github.com/adanyl0v/go-todo-tenants/internal/storage"
)

var testLogger = zerolog.New(io.Discard)

func ptr[T any](v T) *T { return &v }

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

type memoryObject struct {
	data        []byte
	contentType string
	modTime     time.Time
}

// memoryStore is an in-memory storage.ObjectStore with fault injection.
type memoryStore struct {
	mu        sync.Mutex
	objects   map[string]memoryObject
	putErr    error
	getErr    error
	deleteErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string]memoryObject)}
}

func (m *memoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = memoryObject{data: data, contentType: contentType, modTime: time.Now()}
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (*storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	obj, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{Data: obj.data, ContentType: obj.contentType}, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var infos []storage.ObjectInfo
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			infos = append(infos, storage.ObjectInfo{
				Key:     key,
				Size:    uint64(len(obj.data)),
				ModTime: obj.modTime,
			})
		}
	}
	return infos, nil
}

func (m *memoryStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[key]
	return ok
}

func (m *memoryStore) seed(key string, data []byte, modTime time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = memoryObject{data: data, contentType: "image/png", modTime: modTime}
}

func (m *memoryStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.objects)
}

// fakeResolver maps identity IDs to emails.
type fakeResolver struct {
	emails map[string]string
	err    error
}

func (f *fakeResolver) ResolveIdentity(context.Context, identity.Credentials) (string, error) {
	return "", identity.ErrNoIdentity
}

func (f *fakeResolver) ResolveRole(_ context.Context, identityID string) (*identity.Role, error) {
	if f.err != nil {
		return nil, f.err
	}
	email, ok := f.emails[identityID]
	if !ok {
		return nil, errors.New("user vanished")
	}
	return &identity.Role{Email: email}, nil
}
