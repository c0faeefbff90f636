package session

import "sync"

// Manager 按用户管理会话引擎
type Manager struct {
	mu      sync.RWMutex
	engines map[string]*Engine
	deps    Deps
}

// NewManager 创建会话管理器
func NewManager(deps Deps) *Manager {
	return &Manager{
		engines: make(map[string]*Engine),
		deps:    deps,
	}
}

// Engine 获取用户的会话引擎，不存在则创建
func (m *Manager) Engine(userID string) *Engine {
	m.mu.RLock()
	engine, ok := m.engines[userID]
	m.mu.RUnlock()
	if ok {
		return engine
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if engine, ok := m.engines[userID]; ok {
		return engine
	}
	engine = NewEngine(userID, m.deps)
	m.engines[userID] = engine
	return engine
}

// Drop 释放用户的会话引擎（登出时调用）
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.engines, userID)
}
