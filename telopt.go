package telnet

import (
	"fmt"
)

// PluginUsage indicates how a particular Plugin is supposed to be used by the
// session: whether it is permitted to be activated locally or on the remote,
// and whether the session should request activation locally or on the remote
// when it builds.
type PluginUsage byte

// There's no situation where we'd want to request usage of a plugin's option
// but not allow the remote to propose it, so the exported RequestRemote/Local
// constants below always include the matching Allow flag.
const (
	// PluginAllowRemote - if the remote requests to activate this option on
	// their side, we will permit it.
	PluginAllowRemote PluginUsage = 1 << iota
	pluginOnlyRequestRemote
	// PluginAllowLocal - if the remote requests that we activate this option
	// on our side, we will comply.
	PluginAllowLocal
	pluginOnlyRequestLocal
)

const (
	// PluginRequestRemote - at build time, the session will send DO for this
	// option, asking the remote to activate it.
	PluginRequestRemote PluginUsage = PluginAllowRemote | pluginOnlyRequestRemote
	// PluginRequestLocal - at build time, the session will send WILL for this
	// option, asking the remote to let us activate it.
	PluginRequestLocal PluginUsage = PluginAllowLocal | pluginOnlyRequestLocal
)

// Plugin is a single option module attached to a session. Each session has
// its own instance of a plugin for each option code it supports.
type Plugin interface {
	// Code returns the option code this plugin should be registered under.
	// Expected to run successfully before Initialize is called.
	Code() OptionCode
	// String returns the short name used to refer to this option.
	String() string
	// Usage indicates the way in which this plugin's option is permitted to
	// be negotiated.
	Usage() PluginUsage
	// Dependencies returns the option codes of other plugins this plugin may
	// call into. A dependency on an unregistered option is a configuration
	// error at Build.
	Dependencies() []OptionCode

	// Initialize supplies the owning session and performs any other setup
	// necessary before other methods may be called.
	Initialize(session *Session)
	// Session returns the owning session. Must return nil before Initialize
	// is called.
	Session() *Session

	// OnEnabled is called by the plugin host the first time the negotiator
	// brings this option's state to YES on the given side.
	OnEnabled(side Side)
	// OnDisabled is called when the option's state returns to NO on the
	// given side, after having been enabled.
	OnDisabled(side Side)

	// Subnegotiate is called when a complete SB...SE payload arrives for
	// this option. Only called while the option is enabled on at least one
	// side.
	Subnegotiate(subnegotiation []byte) error
	// SubnegotiationString renders a subnegotiation payload legibly, for
	// logging.
	SubnegotiationString(subnegotiation []byte) (string, error)
}

// Side indicates a direction of negotiation: the local side of the session,
// or the remote peer's side. Most options are negotiated independently in
// each direction (the Q-method state table is one per option per side).
type Side byte

const (
	SideLocal Side = iota
	SideRemote
)

func (s Side) String() string {
	if s == SideRemote {
		return "remote"
	}
	return "local"
}

// pluginStack owns the set of registered plugins keyed by option code. It is
// the type-erased map backing GetPlugin and the negotiator's acceptance
// queries; the dependency/lifecycle bookkeeping lives in host.go.
type pluginStack struct {
	plugins map[OptionCode]Plugin
}

func newPluginStack() *pluginStack {
	return &pluginStack{plugins: make(map[OptionCode]Plugin)}
}

func (s *pluginStack) register(p Plugin) error {
	if old, has := s.plugins[p.Code()]; has {
		return ConfigurationError{Detail: fmt.Sprintf(
			"option %s is already registered to a plugin of type %T, cannot register %T", p.Code(), old, p)}
	}

	s.plugins[p.Code()] = p
	return nil
}

func (s *pluginStack) get(opt OptionCode) (Plugin, bool) {
	p, ok := s.plugins[opt]
	return p, ok
}

// TypedPlugin is used as a bit of a hack for GetPlugin. It allows the generic
// semantic below to work.
type TypedPlugin[OptionStruct any] interface {
	*OptionStruct
	Plugin
}

// GetPlugin retrieves a live plugin from a session. It is used like this:
//
//	telnet.GetPlugin[telopts.NAWS](session)
//
// The above returns a value of type *telopts.NAWS, or nil if NAWS is not a
// registered plugin. If a plugin of a different type is registered under
// NAWS's code, it returns an error.
func GetPlugin[OptionStruct any, T TypedPlugin[OptionStruct]](session *Session) (T, error) {
	var zero OptionStruct
	code := T(&zero).Code()

	plugin, hasPlugin := session.host.get(code)
	if !hasPlugin {
		return nil, nil
	}

	typed, ok := plugin.(T)
	if !ok {
		return nil, fmt.Errorf("plugin %s did not return type %T - it returned type %T", T(&zero).String(), zero, plugin)
	}

	return typed, nil
}
