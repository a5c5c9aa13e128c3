package statemachine

import (
	"github.com/junbin-yang/go-fsmkit/pkg/logger"
)

// FSM 带转换缓存的有限状态机。
//
// S 为状态标识类型，A 为守卫参数类型，二者在创建时确定，
// 该实例上注册的所有守卫共享同一参数类型。
//
// 拓扑（AddState/AddTransition/SetCallback）必须在并发使用前构建完成。
// 当前状态指针不加锁，单个 FSM 应由同一个 goroutine 驱动；
// 每个状态的转换缓存有独立的互斥锁。
type FSM[S comparable, A any] struct {
	index   map[S]int
	states  []*State[S, A]
	current int

	name    string
	log     logger.Logger
	metrics Metrics
}

// New 创建空状态机
func New[S comparable, A any](opts ...Option) *FSM[S, A] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &FSM[S, A]{
		index:   make(map[S]int),
		current: -1,
		name:    o.name,
		log:     o.log.With(logger.String("fsm", o.name)),
	}
}

// AddState 添加状态。状态已存在时返回已有的状态，不会重复创建。
// 第一个添加的状态成为初始状态。
func (f *FSM[S, A]) AddState(id S, entityID EntityID) *State[S, A] {
	if i, ok := f.index[id]; ok {
		return f.states[i]
	}

	state := newState[S, A](id, len(f.states), entityID)
	f.index[id] = state.index
	f.states = append(f.states, state)
	if f.current < 0 {
		f.current = state.index
	}

	f.log.Debug("state added",
		logger.Any("state", id),
		logger.Uint32("entity_id", entityID),
	)
	return state
}

// AddTransition 添加 from -> to 的转换，追加在 from 已有转换之后。
// from 或 to 未注册、guard 为 nil 时 panic。
func (f *FSM[S, A]) AddTransition(from, to S, guard GuardFunc[A]) {
	src := f.mustState("AddTransition", from)
	dst := f.mustState("AddTransition", to)
	if guard == nil {
		f.fail(newPreconditionError("AddTransition", ErrNilGuard, "%v -> %v", from, to))
	}

	src.addTransition(&Transition[S, A]{
		to:     dst.index,
		target: to,
		guard:  guard,
	})
}

// SetCallback 设置状态的进入/退出回调。
// 传入 nil 的回调保持原值不变，因此可以多次调用分别设置。
func (f *FSM[S, A]) SetCallback(state S, onEnter, onExit CallbackFunc) {
	f.mustState("SetCallback", state).setCallbacks(onEnter, onExit)
}

// SetOnEnter 设置状态进入时的回调
func (f *FSM[S, A]) SetOnEnter(state S, fn CallbackFunc) {
	f.SetCallback(state, fn, nil)
}

// SetOnExit 设置状态退出时的回调
func (f *FSM[S, A]) SetOnExit(state S, fn CallbackFunc) {
	f.SetCallback(state, nil, fn)
}

// Start 执行当前状态的进入回调，不改变状态
func (f *FSM[S, A]) Start() {
	cur := f.mustCurrent("Start")
	f.log.Debug("start", logger.Any("state", cur.name))
	cur.enter()
}

// Update 使用 args 评估当前状态的转换，返回是否发生了转换。
//
// 先校验缓存的转换，失效时按添加顺序扫描，第一个通过的守卫胜出。
// 没有守卫通过时状态不变，也不执行回调。
//
// 回调顺序：旧状态 exit，切换当前状态，新状态 enter。
// 守卫和回调的 panic 不会被捕获：exit panic 时状态未切换，
// enter panic 时状态已切换。
func (f *FSM[S, A]) Update(args A) bool {
	cur := f.mustCurrent("Update")
	f.metrics.recordUpdate()

	target, ok, hadCache := cur.tryCachedTransition(args)
	if ok {
		f.metrics.update.hit(&f.metrics)
		f.log.Debug("cache hit",
			logger.Any("state", cur.name),
			logger.Any("target", f.states[target].name),
		)
		f.handleTransition(cur, f.states[target])
		return true
	}
	if hadCache {
		f.metrics.update.miss(&f.metrics)
		f.log.Debug("cache invalidated", logger.Any("state", cur.name))
	}

	f.metrics.update.scan()
	for i, t := range cur.transitions {
		f.metrics.recordGuard()
		if t.check(cur.entityID, args) {
			cur.updateCache(i, t.to)
			f.handleTransition(cur, f.states[t.to])
			return true
		}
	}
	return false
}

// Current 返回当前状态
func (f *FSM[S, A]) Current() S {
	return f.mustCurrent("Current").name
}

// CanTransitionTo 检查以 args 调用 Update 时能否从当前状态转换到 target。
// 不改变当前状态，也不执行回调。
//
// 注意：与 Update 相同，它会校验并可能清空或写入当前状态的缓存，
// 因此不是纯查询。只有当匹配的转换正是 Update 在相同参数下会选中的
// 那一条时才写入缓存，所以不会改变后续 Update 的结果。
func (f *FSM[S, A]) CanTransitionTo(target S, args A) bool {
	cur := f.mustCurrent("CanTransitionTo")
	dst := f.mustState("CanTransitionTo", target)
	f.metrics.recordQuery()

	cached, ok, hadCache := cur.tryCachedTransition(args)
	if ok {
		f.metrics.query.hit(&f.metrics)
		if cached == dst.index {
			return true
		}
		// 缓存指向其他目标，仅检查通往 target 的转换
		f.metrics.query.scan()
		for _, t := range cur.transitions {
			if t.to != dst.index {
				continue
			}
			f.metrics.recordGuard()
			if t.check(cur.entityID, args) {
				return true
			}
		}
		return false
	}
	if hadCache {
		f.metrics.query.miss(&f.metrics)
	}

	f.metrics.query.scan()
	first := true
	for i, t := range cur.transitions {
		if t.to != dst.index && !first {
			continue
		}
		f.metrics.recordGuard()
		if !t.check(cur.entityID, args) {
			continue
		}
		if t.to == dst.index {
			if first {
				cur.updateCache(i, t.to)
			}
			return true
		}
		// 更早的转换会被 Update 选中，之后的命中不能写入缓存
		first = false
	}
	return false
}

// HasState 检查状态是否已注册
func (f *FSM[S, A]) HasState(id S) bool {
	_, ok := f.index[id]
	return ok
}

// State 返回已注册的状态
func (f *FSM[S, A]) State(id S) (*State[S, A], bool) {
	i, ok := f.index[id]
	if !ok {
		return nil, false
	}
	return f.states[i], true
}

// States 按添加顺序返回所有状态标识
func (f *FSM[S, A]) States() []S {
	ids := make([]S, len(f.states))
	for i, s := range f.states {
		ids[i] = s.name
	}
	return ids
}

// Len 返回状态数量
func (f *FSM[S, A]) Len() int {
	return len(f.states)
}

// Name 返回状态机名称
func (f *FSM[S, A]) Name() string {
	return f.name
}

// Metrics 返回统计快照
func (f *FSM[S, A]) Metrics() *MetricsSnapshot {
	return f.metrics.snapshot()
}

// handleTransition 执行 exit -> 切换 -> enter
func (f *FSM[S, A]) handleTransition(from, to *State[S, A]) {
	from.exit()
	f.current = to.index
	f.metrics.recordTransition()
	f.log.Debug("transition",
		logger.Any("from", from.name),
		logger.Any("to", to.name),
		logger.Uint32("entity_id", from.entityID),
	)
	to.enter()
}

func (f *FSM[S, A]) mustState(op string, id S) *State[S, A] {
	i, ok := f.index[id]
	if !ok {
		f.fail(newPreconditionError(op, ErrStateNotFound, "%v", id))
	}
	return f.states[i]
}

func (f *FSM[S, A]) mustCurrent(op string) *State[S, A] {
	if f.current < 0 {
		f.fail(newPreconditionError(op, ErrNoStates, "no current state"))
	}
	return f.states[f.current]
}

// fail 记录并 panic，前置条件违反属于编程错误
func (f *FSM[S, A]) fail(err *PreconditionError) {
	f.log.Error("precondition violated", logger.Err(err))
	panic(err)
}
