package telnet

import "testing"

// fakePlugin is a minimal Plugin implementation used only to exercise the
// plugin host's registration, dependency, and lifecycle bookkeeping without
// pulling in a real option module.
type fakePlugin struct {
	code    OptionCode
	name    string
	usage   PluginUsage
	depends []OptionCode
	session *Session

	enabledSides  []Side
	disabledSides []Side
}

func (p *fakePlugin) Code() OptionCode         { return p.code }
func (p *fakePlugin) String() string           { return p.name }
func (p *fakePlugin) Usage() PluginUsage       { return p.usage }
func (p *fakePlugin) Dependencies() []OptionCode {
	return p.depends
}
func (p *fakePlugin) Initialize(session *Session) { p.session = session }
func (p *fakePlugin) Session() *Session           { return p.session }
func (p *fakePlugin) OnEnabled(side Side)         { p.enabledSides = append(p.enabledSides, side) }
func (p *fakePlugin) OnDisabled(side Side)        { p.disabledSides = append(p.disabledSides, side) }
func (p *fakePlugin) Subnegotiate(subnegotiation []byte) error {
	return nil
}
func (p *fakePlugin) SubnegotiationString(subnegotiation []byte) (string, error) {
	return "", nil
}

func TestPluginHostBuildOrdersByDependency(t *testing.T) {
	session := &Session{}
	host := newPluginHost(session)

	// b depends on a; registered in reverse order, the build must still
	// initialize a before b.
	a := &fakePlugin{code: OptionNAWS, name: "A"}
	b := &fakePlugin{code: OptionCharset, name: "B", depends: []OptionCode{OptionNAWS}}

	if err := host.Build([]Plugin{b, a}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	idxA, idxB := -1, -1
	for i, opt := range host.order {
		if opt == OptionNAWS {
			idxA = i
		}
		if opt == OptionCharset {
			idxB = i
		}
	}
	if idxA < 0 || idxB < 0 || idxA > idxB {
		t.Fatalf("expected A before B in build order, got %v", host.order)
	}
}

func TestPluginHostBuildDetectsCycle(t *testing.T) {
	session := &Session{}
	host := newPluginHost(session)

	a := &fakePlugin{code: OptionNAWS, name: "A", depends: []OptionCode{OptionCharset}}
	b := &fakePlugin{code: OptionCharset, name: "B", depends: []OptionCode{OptionNAWS}}

	err := host.Build([]Plugin{a, b})
	if err == nil {
		t.Fatal("expected a configuration error for the dependency cycle")
	}
}

func TestPluginHostBuildRejectsUnregisteredDependency(t *testing.T) {
	session := &Session{}
	host := newPluginHost(session)

	a := &fakePlugin{code: OptionNAWS, name: "A", depends: []OptionCode{OptionCharset}}

	if err := host.Build([]Plugin{a}); err == nil {
		t.Fatal("expected a configuration error for the unregistered dependency")
	}
}

func TestPluginHostDisableRefusedWhileDependentEnabled(t *testing.T) {
	session := &Session{}
	session.negotiator = newNegotiator(session)
	session.keyboard = &TelnetKeyboard{input: make(chan keyboardTransport, 10)}
	session.logger = newSessionLogger(nil)
	session.hooks = newHookSet(EventHooks{})
	host := newPluginHost(session)
	session.host = host

	a := &fakePlugin{code: OptionNAWS, name: "A", usage: PluginRequestLocal}
	b := &fakePlugin{code: OptionCharset, name: "B", usage: PluginRequestLocal, depends: []OptionCode{OptionNAWS}}

	if err := host.Build([]Plugin{a, b}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	*session.negotiator.stateFor(OptionNAWS).forSide(SideLocal) = qYes
	*session.negotiator.stateFor(OptionCharset).forSide(SideLocal) = qYes

	err := host.DisableOption(OptionNAWS, SideLocal)
	if err == nil {
		t.Fatal("expected DisableOption to refuse while B still depends on A")
	}

	var refused DisableRefusedError
	if got, ok := err.(DisableRefusedError); ok {
		refused = got
	} else {
		t.Fatalf("expected a DisableRefusedError, got %T", err)
	}
	if len(refused.Dependents) != 1 || refused.Dependents[0] != OptionCharset {
		t.Fatalf("unexpected dependents: %v", refused.Dependents)
	}
}
