package handlers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"reel/internal/models"
	"reel/internal/repositories"
)

type fakeStore struct {
	mu        sync.Mutex
	renders   map[string]*models.Render
	createErr error
	pingErr   error
	lastLimit int
}

func newFakeStore() *fakeStore {
	return &fakeStore{renders: map[string]*models.Render{}}
}

func (s *fakeStore) Create(_ context.Context, m *models.Render) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	m.Status = models.StatusQueued
	m.CreatedAt = time.Now().UTC()
	cp := *m
	s.renders[m.ID] = &cp
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*models.Render, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.renders[id]
	if !ok {
		return nil, repositories.ErrRenderNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *fakeStore) List(_ context.Context, status models.RenderStatus, limit int) ([]models.Render, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	out := []models.Render{}
	for _, m := range s.renders {
		if status == "" || m.Status == status {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) MarkFailed(_ context.Context, id, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.renders[id]
	if !ok {
		return repositories.ErrRenderNotFound
	}
	m.Status = models.StatusFailed
	m.ErrorText = &errText
	return nil
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

type fakeQueue struct {
	mu      sync.Mutex
	pushed  []string
	pushErr error
	pingErr error
}

func (q *fakeQueue) Push(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pushErr != nil {
		return q.pushErr
	}
	q.pushed = append(q.pushed, id)
	return nil
}

func (q *fakeQueue) Ping(context.Context) error { return q.pingErr }

var errDown = errors.New("connection refused")
