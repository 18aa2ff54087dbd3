package mock

import (
	"errors"
	"sync/atomic"
)

// ErrConnectionRefused is returned by NewFailingDB.
var ErrConnectionRefused = errors.New("connection refused")

// Core interfaces
type Database interface {
	Name() string
}

type Cache interface {
	Get(key string) any
	Backend() Database
}

// Mock implementations
type MockDB struct {
	DSN string
}

func NewMockDB() *MockDB {
	created.Add(1)
	return &MockDB{DSN: "mock://primary"}
}

func (m *MockDB) Name() string { return "mock" }

type ReplicaDB struct{}

func (r *ReplicaDB) Name() string { return "replica" }

// NewFailingDB always fails, for testing constructor errors.
func NewFailingDB() (*MockDB, error) {
	return nil, ErrConnectionRefused
}

type MockCache struct {
	DB Database `inject:""`
}

func NewMockCache(db Database) *MockCache {
	return &MockCache{DB: db}
}

func (m *MockCache) Get(key string) any { return nil }

func (m *MockCache) Backend() Database { return m.DB }

// ComplexService depends on both a database and a cache that also needs a
// database, so the database is shared inside one graph.
type ComplexService struct {
	DB    Database `inject:""`
	Cache Cache    `inject:""`
}

// ReportingService asks for the reporting replica by role.
type ReportingService struct {
	DB Database `inject:"reporting"`
}

// Circular dependency test types
type CircularService1 interface {
	GetService2() CircularService2
}

type CircularService2 interface {
	GetService1() CircularService1
}

type CircularImpl1 struct {
	Svc2 CircularService2 `inject:""`
}

func (i *CircularImpl1) GetService2() CircularService2 { return i.Svc2 }

type CircularImpl2 struct {
	Svc1 CircularService1 `inject:""`
}

func (i *CircularImpl2) GetService1() CircularService1 { return i.Svc1 }

// SelfReferencing depends on itself directly.
type SelfReferencing struct {
	Next *SelfReferencing `inject:""`
}

// Deep dependency chain
type DeepService1 interface {
	GetService2() DeepService2
}

type DeepService2 interface {
	GetService3() DeepService3
}

type DeepService3 interface {
	GetValue() string
}

type DeepImpl1 struct {
	Svc2 DeepService2 `inject:""`
}

func (d *DeepImpl1) GetService2() DeepService2 { return d.Svc2 }

type DeepImpl2 struct {
	Svc3 DeepService3 `inject:""`
}

func (d *DeepImpl2) GetService3() DeepService3 { return d.Svc3 }

type DeepImpl3 struct {
	Value string
}

func (d *DeepImpl3) GetValue() string { return d.Value }

// DBConfig is a plain struct built by field injection.
type DBConfig struct {
	DSN string
}

// DBProvider produces databases through its Get method.
type DBProvider struct {
	Config *DBConfig
	Calls  atomic.Int32
}

func NewDBProvider(cfg *DBConfig) *DBProvider {
	providers.Add(1)
	return &DBProvider{Config: cfg}
}

func (p *DBProvider) Get() (Database, error) {
	p.Calls.Add(1)
	return &ReplicaDB{}, nil
}

var created, providers atomic.Int64

// Created reports how many times NewMockDB ran.
func Created() int64 { return created.Load() }

// ProvidersCreated reports how many times NewDBProvider ran.
func ProvidersCreated() int64 { return providers.Load() }

// ResetCounters zeroes the constructor counters.
func ResetCounters() {
	created.Store(0)
	providers.Store(0)
}
