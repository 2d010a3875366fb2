package service

import (
	"context"
	"datahub/config"
	"datahub/internal/repo"
	"datahub/internal/storage"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"datahub/model"
)

var testDBOnce sync.Once
var testDBErr error

// setupTestDB connects to the test database, skipping the test when no MySQL
// is reachable.
func setupTestDB(t *testing.T) {
	t.Helper()
	testDBOnce.Do(func() {
		config.InitConfig()
		testDBErr = repo.TryInitMysqlTest()
	})
	if testDBErr != nil {
		t.Skipf("mysql not available: %v", testDBErr)
	}
	cleanTables(t)
}

func cleanTables(t *testing.T) {
	t.Helper()
	repo.Db.Exec("SET FOREIGN_KEY_CHECKS = 0")
	tables := []string{
		"validation_record", "batch_file", "batch", "submission_collaborator",
		"submission_history", "submission", "organization", "user_db",
	}
	for _, table := range tables {
		if err := repo.Db.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("clean %s failed: %v", table, err)
		}
	}
	repo.Db.Exec("SET FOREIGN_KEY_CHECKS = 1")
}

func createTestOrg(t *testing.T) *model.Organization {
	t.Helper()
	org := &model.Organization{
		Name: fmt.Sprintf("org_%d", time.Now().UnixNano()),
	}
	if err := repo.Db.Create(org).Error; err != nil {
		t.Fatal(err)
	}
	return org
}

func submitterActor(id, orgID uint64) Actor {
	return Actor{ID: id, Role: model.RoleSubmitter, OrgID: orgID}
}

func curatorActor(id uint64) Actor {
	return Actor{ID: id, Role: model.RoleCurator}
}

// fakeStore satisfies storage.Store without an object storage backend.
type fakeStore struct {
	objects map[string][]byte
	mu      sync.Mutex
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts storage.PutOptions) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket+"/"+object] = data
	return nil
}

func (f *fakeStore) ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ObjectInfo
	for key, data := range f.objects {
		out = append(out, storage.ObjectInfo{ObjectName: key, Size: int64(len(data))})
	}
	return out, nil
}

func (f *fakeStore) RemoveObject(ctx context.Context, bucket, object string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+object)
	return nil
}

func (f *fakeStore) RemovePrefix(ctx context.Context, bucket, prefix string) error {
	return nil
}

func (f *fakeStore) PresignedPutObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	return "https://example.test/upload/" + object, nil
}

func (f *fakeStore) PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration) (string, error) {
	return "https://example.test/download/" + object, nil
}
