package statemachine

import "sync"

// State 状态机中的一个状态节点。
// 持有按添加顺序排列的出边、单槽转换缓存以及进入/退出回调。
type State[S comparable, A any] struct {
	name        S
	index       int
	entityID    EntityID
	transitions []*Transition[S, A] // 只追加，顺序即优先级

	onEnter CallbackFunc
	onExit  CallbackFunc

	mu     sync.Mutex
	cache  transitionCache
	cached bool
}

func newState[S comparable, A any](name S, index int, entityID EntityID) *State[S, A] {
	return &State[S, A]{
		name:     name,
		index:    index,
		entityID: entityID,
	}
}

// Name 返回状态标识
func (s *State[S, A]) Name() S {
	return s.name
}

// EntityID 返回状态关联的实体 ID
func (s *State[S, A]) EntityID() EntityID {
	return s.entityID
}

// Transitions 返回出边的只读副本
func (s *State[S, A]) Transitions() []Transition[S, A] {
	out := make([]Transition[S, A], len(s.transitions))
	for i, t := range s.transitions {
		out[i] = *t
	}
	return out
}

// CachedTransition 返回当前缓存的转换（目标状态与转换下标）
func (s *State[S, A]) CachedTransition() (target S, index int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cached {
		return target, -1, false
	}
	return s.transitions[s.cache.index].target, s.cache.index, true
}

func (s *State[S, A]) addTransition(t *Transition[S, A]) {
	s.transitions = append(s.transitions, t)
}

// tryCachedTransition 重新校验缓存转换的守卫。
// 通过时返回缓存的目标下标；失败时清空缓存。
// hadCache 区分"没有缓存"和"缓存失效"。
func (s *State[S, A]) tryCachedTransition(args A) (target int, ok, hadCache bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cached {
		return -1, false, false
	}
	if s.transitions[s.cache.index].check(s.entityID, args) {
		return s.cache.target, true, true
	}

	s.cached = false
	s.cache = transitionCache{}
	return -1, false, true
}

// updateCache 覆盖缓存
func (s *State[S, A]) updateCache(index, target int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = transitionCache{target: target, index: index}
	s.cached = true
}

// setCallbacks 仅更新非 nil 的回调
func (s *State[S, A]) setCallbacks(enter, exit CallbackFunc) {
	if enter != nil {
		s.onEnter = enter
	}
	if exit != nil {
		s.onExit = exit
	}
}

func (s *State[S, A]) enter() {
	if s.onEnter != nil {
		s.onEnter(s.entityID)
	}
}

func (s *State[S, A]) exit() {
	if s.onExit != nil {
		s.onExit(s.entityID)
	}
}
