package telnet

import "fmt"

// pluginHost is the plugin host (C4): it owns the registered plugin set,
// resolves dependency order at build time, and derives each plugin's
// enabled/disabled lifecycle from the negotiator's state table.
type pluginHost struct {
	session *Session
	stack   *pluginStack
	order   []OptionCode

	dependents map[OptionCode][]OptionCode
	enabled    map[OptionCode]map[Side]bool
}

func newPluginHost(session *Session) *pluginHost {
	return &pluginHost{
		session:    session,
		stack:      newPluginStack(),
		dependents: make(map[OptionCode][]OptionCode),
		enabled:    make(map[OptionCode]map[Side]bool),
	}
}

// Build registers every plugin, validates dependencies, and computes a
// topological order (ties broken by registration order). Plugins are
// initialized in that order. A missing dependency or a dependency cycle is a
// ConfigurationError, returned synchronously without bringing up the
// session.
func (h *pluginHost) Build(plugins []Plugin) error {
	regIndex := make(map[OptionCode]int, len(plugins))

	for i, p := range plugins {
		if err := h.stack.register(p); err != nil {
			return err
		}
		regIndex[p.Code()] = i
	}

	for _, p := range plugins {
		for _, dep := range p.Dependencies() {
			if _, ok := h.stack.get(dep); !ok {
				return ConfigurationError{Detail: fmt.Sprintf(
					"plugin %s declares a dependency on unregistered option %s", p.Code(), dep)}
			}
			h.dependents[dep] = append(h.dependents[dep], p.Code())
		}
	}

	order, err := topoSort(plugins, regIndex)
	if err != nil {
		return err
	}
	h.order = order

	for _, opt := range h.order {
		plugin, _ := h.stack.get(opt)
		plugin.Initialize(h.session)
	}

	return nil
}

// topoSort orders plugins so that each plugin appears after every plugin it
// depends on, breaking ties by registration order (Kahn's algorithm with a
// registration-index-ordered frontier).
func topoSort(plugins []Plugin, regIndex map[OptionCode]int) ([]OptionCode, error) {
	inDegree := make(map[OptionCode]int, len(plugins))
	dependents := make(map[OptionCode][]OptionCode)

	for _, p := range plugins {
		if _, ok := inDegree[p.Code()]; !ok {
			inDegree[p.Code()] = 0
		}
		for _, dep := range p.Dependencies() {
			inDegree[p.Code()]++
			dependents[dep] = append(dependents[dep], p.Code())
		}
	}

	var frontier []OptionCode
	for _, p := range plugins {
		if inDegree[p.Code()] == 0 {
			frontier = append(frontier, p.Code())
		}
	}

	order := make([]OptionCode, 0, len(plugins))
	for len(frontier) > 0 {
		// Pick the lowest registration index among the frontier to keep ties
		// stable.
		bestIdx := 0
		for i := 1; i < len(frontier); i++ {
			if regIndex[frontier[i]] < regIndex[frontier[bestIdx]] {
				bestIdx = i
			}
		}

		next := frontier[bestIdx]
		frontier = append(frontier[:bestIdx], frontier[bestIdx+1:]...)
		order = append(order, next)

		for _, child := range dependents[next] {
			inDegree[child]--
			if inDegree[child] == 0 {
				frontier = append(frontier, child)
			}
		}
	}

	if len(order) != len(plugins) {
		return nil, ConfigurationError{Detail: "plugin dependency graph contains a cycle"}
	}

	return order, nil
}

// WriteInitialNegotiations emits the outbound WILL/DO vector declared by each
// plugin's Usage at session bring-up, in dependency order.
func (h *pluginHost) WriteInitialNegotiations() {
	for _, opt := range h.order {
		plugin, _ := h.stack.get(opt)
		usage := plugin.Usage()

		if usage&pluginOnlyRequestLocal != 0 {
			h.session.negotiator.RequestEnable(opt, SideLocal)
		}
		if usage&pluginOnlyRequestRemote != 0 {
			h.session.negotiator.RequestEnable(opt, SideRemote)
		}
	}
}

func (h *pluginHost) get(opt OptionCode) (Plugin, bool) {
	return h.stack.get(opt)
}

// isEnabled reports whether opt has reached YES on either side.
func (h *pluginHost) isEnabled(opt OptionCode) bool {
	return h.session.negotiator.state(opt, SideLocal) == qYes ||
		h.session.negotiator.state(opt, SideRemote) == qYes
}

func (h *pluginHost) fireEnabled(opt OptionCode, side Side) {
	plugin, ok := h.stack.get(opt)
	if !ok {
		return
	}

	sides, ok := h.enabled[opt]
	if !ok {
		sides = make(map[Side]bool)
		h.enabled[opt] = sides
	}
	sides[side] = true

	h.session.logger.pluginState(opt, side, true)
	plugin.OnEnabled(side)
}

func (h *pluginHost) fireDisabled(opt OptionCode, side Side) {
	plugin, ok := h.stack.get(opt)
	if !ok {
		return
	}

	if sides, ok := h.enabled[opt]; ok {
		delete(sides, side)
	}

	h.session.logger.pluginState(opt, side, false)
	plugin.OnDisabled(side)
}

// DisableOption requests that opt be disabled on the given side, refusing the
// request synchronously if another enabled plugin still depends on it.
func (h *pluginHost) DisableOption(opt OptionCode, side Side) error {
	var activeDependents []OptionCode
	for _, dependent := range h.dependents[opt] {
		if h.isEnabled(dependent) {
			activeDependents = append(activeDependents, dependent)
		}
	}

	if len(activeDependents) > 0 {
		return DisableRefusedError{Option: opt, Dependents: activeDependents}
	}

	h.session.negotiator.RequestDisable(opt, side)
	return nil
}
