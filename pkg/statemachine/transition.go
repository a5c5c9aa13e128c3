package statemachine

// Transition 定义一条有向边：目标状态与守卫条件。
// 源状态由包含它的 State 隐含。
type Transition[S comparable, A any] struct {
	to     int // 目标状态在 FSM 状态表中的下标
	target S
	guard  GuardFunc[A]
}

// Target 返回目标状态
func (t *Transition[S, A]) Target() S {
	return t.target
}

// check 以给定参数评估守卫
func (t *Transition[S, A]) check(entityID EntityID, args A) bool {
	return t.guard(entityID, args)
}

// transitionCache 记录某个状态最近一次成功的转换
type transitionCache struct {
	target int // 目标状态下标
	index  int // 转换在源状态转换列表中的下标
}
