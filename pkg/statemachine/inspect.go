package statemachine

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v2"
)

// Topology 状态机结构的只读描述，仅用于查看和导出，不支持恢复
type Topology struct {
	Name    string      `json:"name" yaml:"name"`
	Initial string      `json:"initial,omitempty" yaml:"initial,omitempty"`
	Current string      `json:"current,omitempty" yaml:"current,omitempty"`
	States  []StateInfo `json:"states" yaml:"states"`
}

// StateInfo 单个状态的描述
type StateInfo struct {
	Name        string     `json:"name" yaml:"name"`
	EntityID    EntityID   `json:"entity_id" yaml:"entity_id"`
	OnEnter     bool       `json:"on_enter" yaml:"on_enter"`
	OnExit      bool       `json:"on_exit" yaml:"on_exit"`
	Transitions []EdgeInfo `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	CachedIndex *int       `json:"cached_index,omitempty" yaml:"cached_index,omitempty"`
}

// EdgeInfo 单条转换的描述，Index 即优先级
type EdgeInfo struct {
	Index  int    `json:"index" yaml:"index"`
	Target string `json:"target" yaml:"target"`
}

// Describe 生成当前拓扑的描述
func (f *FSM[S, A]) Describe() *Topology {
	topo := &Topology{
		Name:   f.name,
		States: make([]StateInfo, 0, len(f.states)),
	}
	if len(f.states) > 0 {
		topo.Initial = fmt.Sprint(f.states[0].name)
	}
	if f.current >= 0 {
		topo.Current = fmt.Sprint(f.states[f.current].name)
	}

	for _, s := range f.states {
		info := StateInfo{
			Name:     fmt.Sprint(s.name),
			EntityID: s.entityID,
			OnEnter:  s.onEnter != nil,
			OnExit:   s.onExit != nil,
		}
		for i, t := range s.transitions {
			info.Transitions = append(info.Transitions, EdgeInfo{
				Index:  i,
				Target: fmt.Sprint(t.target),
			})
		}
		if _, idx, ok := s.CachedTransition(); ok {
			info.CachedIndex = &idx
		}
		topo.States = append(topo.States, info)
	}
	return topo
}

// JSON 以缩进 JSON 导出
func (t *Topology) JSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// YAML 以 YAML 导出
func (t *Topology) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}

// Mermaid 生成 Mermaid stateDiagram-v2 文本，边上标注转换优先级
func (t *Topology) Mermaid() string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2")

	for _, s := range t.States {
		if id := sanitizeStateName(s.Name); id != s.Name {
			sb.WriteString(fmt.Sprintf("\n\t%s : %s", id, s.Name))
		}
	}

	if t.Initial != "" {
		sb.WriteString(fmt.Sprintf("\n\t[*] --> %s", sanitizeStateName(t.Initial)))
	}

	for _, s := range t.States {
		for _, e := range s.Transitions {
			sb.WriteString(fmt.Sprintf("\n\t%s --> %s : #%d",
				sanitizeStateName(s.Name), sanitizeStateName(e.Target), e.Index))
		}
	}
	return sb.String()
}

// sanitizeStateName 去掉会破坏 Mermaid 语法的字符
func sanitizeStateName(name string) string {
	var b strings.Builder
	for _, c := range name {
		if !unicode.IsSpace(c) && c != ':' && c != '-' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
