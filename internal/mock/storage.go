package mock

import (
	"context"
	"sync"

	"github.com/autumnsgrove/cdnup/internal/port"
)

// Storage implements the storage interface for tests.
type Storage struct {
	mu sync.Mutex

	// stored values
	GetOut  map[string][]byte
	StatOut port.ObjectInfo
	ListOut []port.ObjectInfo

	// captured inputs
	SavedKeys     []string
	SavedData     map[string][]byte
	SavedMetadata map[string]map[string]string
	CacheControl  string
	ListPrefix    string
	RemovedKeys   []string

	// errors
	SaveErr         error
	GetErr          error
	StatErr         error
	ListErr         error
	RemoveErr       error
	VerifyBucketErr error

	// call flags
	SaveCalled   bool
	GetCalled    bool
	StatCalled   bool
	ListCalled   bool
	RemoveCalled bool
	VerifyCalled bool
}

func (m *Storage) SaveFile(ctx context.Context, key string, data []byte, contentType, cacheControl string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalled = true
	m.CacheControl = cacheControl
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.SavedKeys = append(m.SavedKeys, key)
	if m.SavedData == nil {
		m.SavedData = map[string][]byte{}
	}
	m.SavedData[key] = data
	if metadata != nil {
		if m.SavedMetadata == nil {
			m.SavedMetadata = map[string]map[string]string{}
		}
		m.SavedMetadata[key] = metadata
	}
	return nil
}

func (m *Storage) GetFile(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalled = true
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.GetOut[key], nil
}

func (m *Storage) StatFile(ctx context.Context, key string) (port.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatCalled = true
	if m.StatErr != nil {
		return port.ObjectInfo{}, m.StatErr
	}
	return m.StatOut, nil
}

func (m *Storage) ListByPrefix(ctx context.Context, prefix string) ([]port.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalled = true
	m.ListPrefix = prefix
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListOut, nil
}

func (m *Storage) RemoveFile(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalled = true
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.RemovedKeys = append(m.RemovedKeys, key)
	return nil
}

func (m *Storage) RemoveFiles(ctx context.Context, keys []string) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemoveCalled = true
	if m.RemoveErr != nil {
		return 0, len(keys)
	}
	m.RemovedKeys = append(m.RemovedKeys, keys...)
	return len(keys), 0
}

func (m *Storage) VerifyBucket(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerifyCalled = true
	return m.VerifyBucketErr
}
