package mocks

import (
	"io/fs"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/lc/multilookup/internal/filesys"
)

var (
	_ filesys.ConfigFS = (*MockOsFS)(nil)
	_ filesys.FileOps  = (*MockOsFS)(nil)
)

// MockOsFS is a testify mock of the ConfigFS and FileOps interfaces.
type MockOsFS struct {
	mock.Mock
}

// Stat mocks the Stat method.
func (m *MockOsFS) Stat(p string) (fs.FileInfo, error) {
	args := m.Called(p)
	var fileInfo fs.FileInfo
	if args.Get(0) != nil {
		fileInfo = args.Get(0).(fs.FileInfo)
	}
	return fileInfo, args.Error(1)
}

// MkdirAll mocks the MkdirAll method.
func (m *MockOsFS) MkdirAll(p string, mode os.FileMode) error {
	args := m.Called(p, mode)
	return args.Error(0)
}

// Open mocks the Open method.
func (m *MockOsFS) Open(p string) (*os.File, error) {
	args := m.Called(p)
	return fileArg(args), args.Error(1)
}

// Create mocks the Create method.
func (m *MockOsFS) Create(p string) (*os.File, error) {
	args := m.Called(p)
	return fileArg(args), args.Error(1)
}

// CreateTemp mocks the CreateTemp method.
func (m *MockOsFS) CreateTemp(dir, pat string) (*os.File, error) {
	args := m.Called(dir, pat)
	return fileArg(args), args.Error(1)
}

// Rename mocks the Rename method.
func (m *MockOsFS) Rename(old, newPath string) error {
	args := m.Called(old, newPath)
	return args.Error(0)
}

// Remove mocks the Remove method.
func (m *MockOsFS) Remove(p string) error {
	args := m.Called(p)
	return args.Error(0)
}

// Chmod mocks the Chmod method.
func (m *MockOsFS) Chmod(p string, mode os.FileMode) error {
	args := m.Called(p, mode)
	return args.Error(0)
}

// fileArg handles a nil *os.File in the first return slot.
func fileArg(args mock.Arguments) *os.File {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*os.File)
}
