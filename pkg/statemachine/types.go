package statemachine

// EntityID 关联状态机实例与外部拥有者（例如游戏对象）的不透明标识
type EntityID = uint32

// GuardFunc 守卫条件，根据实体 ID 与调用参数判断转换是否允许。
// 守卫可能在不触发转换的情况下被调用（缓存校验、CanTransitionTo），
// 因此不得修改状态机结构。
type GuardFunc[A any] func(entityID EntityID, args A) bool

// CallbackFunc 在状态进入或退出时执行
type CallbackFunc func(entityID EntityID)

// StateMachine 定义状态机运行期的核心接口
type StateMachine[S comparable, A any] interface {
	// Current 返回当前状态
	Current() S

	// Update 使用给定参数评估当前状态的转换，最多触发一次转换
	Update(args A) bool

	// CanTransitionTo 检查当前状态能否转换到目标状态
	CanTransitionTo(target S, args A) bool

	// HasState 检查状态是否已注册
	HasState(id S) bool
}

var _ StateMachine[string, float64] = (*FSM[string, float64])(nil)
