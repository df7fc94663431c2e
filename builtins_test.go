package uijs

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Validate(t *testing.T) {
	s, _, _ := newTestSession(t)

	cases := []struct {
		name string
		def  FuncDef
		want string
	}{
		{
			name: "EmptyName",
			def:  FuncDef{Fn: func(c *Call) goja.Value { return goja.Undefined() }},
			want: "name cannot be empty",
		},
		{
			name: "MissingImplementation",
			def:  FuncDef{Name: "broken"},
			want: "missing implementation",
		},
		{
			name: "RequiredOutOfRange",
			def: FuncDef{
				Name:     "broken",
				Args:     []ArgKind{ArgInt32},
				Required: 2,
				Fn:       func(c *Call) goja.Value { return goja.Undefined() },
			},
			want: "out of range",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewBuilder().Define(tc.def).Install(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("DuplicateName", func(t *testing.T) {
		ok := FuncDef{Name: "dup", Fn: func(c *Call) goja.Value { return goja.Undefined() }}
		err := NewBuilder().Define(ok).Define(ok).Install(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate entry point")
	})
}

func TestRegisterHandler_Scenario(t *testing.T) {
	s, tk, _ := newTestSession(t)

	_, err := s.Eval(`
		var hits = [];
		var w = createObject();
		registerHandler(w, EVENT_CLICKED, function(ev) { hits.push("cb1:" + (ev.kind === EVENT_CLICKED)); });
		registerHandler(w, EVENT_CLICKED, function(ev) { hits.push("cb2:" + (ev.kind === EVENT_CLICKED)); });
	`)
	require.NoError(t, err)

	wv, err := s.Eval("w.ptr")
	require.NoError(t, err)
	w := ObjPtr(wv.Export().(int64))

	tk.Fire(w, EventClicked)

	v, err := s.Eval(`hits.join(",")`)
	require.NoError(t, err)
	assert.Equal(t, "cb1:true,cb2:true", v.Export())

	_, err = s.Eval(`unregisterHandler(w, EVENT_CLICKED)`)
	require.NoError(t, err)
	tk.Fire(w, EventClicked)

	v, err = s.Eval(`hits.length`)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Export())
}

func TestRegisterHandler_DescriptorTarget(t *testing.T) {
	s, tk, _ := newTestSession(t)

	_, err := s.Eval(`
		var seen = null;
		var w = createObject();
		registerHandler(w, EVENT_VALUE_CHANGED, function(ev) { seen = ev; });
	`)
	require.NoError(t, err)

	wv, err := s.Eval("w.ptr")
	require.NoError(t, err)
	tk.Fire(ObjPtr(wv.Export().(int64)), EventValueChanged)

	v, err := s.Eval(`seen.target.ptr === w.ptr && seen.kind === EVENT_VALUE_CHANGED`)
	require.NoError(t, err)
	assert.Equal(t, true, v.Export())

	// The native event record rides along as an event-class handle.
	v, err = s.Eval(`seen.event.class`)
	require.NoError(t, err)
	assert.Equal(t, "event", v.Export())
}

func TestRegisterHandler_NonObjectThrowsTypeError(t *testing.T) {
	s, _, _ := newTestSession(t)

	before := s.Registry().Len()
	v, err := s.Eval(`
		var caught = null;
		try {
			registerHandler(42, EVENT_CLICKED, function() {});
		} catch (e) {
			caught = e;
		}
		caught instanceof TypeError
	`)
	require.NoError(t, err)
	assert.Equal(t, true, v.Export())
	assert.Equal(t, before, s.Registry().Len())
}

func TestRegisterHandler_CapacityThrowsRangeError(t *testing.T) {
	s, tk, _ := newTestSession(t, WithCapacity(2))

	v, err := s.Eval(`
		var hits = 0;
		var w = createObject();
		registerHandler(w, EVENT_CLICKED, function() { hits++; });
		registerHandler(w, EVENT_CLICKED, function() { hits++; });
		var caught = null;
		try {
			registerHandler(w, EVENT_CLICKED, function() { hits += 100; });
		} catch (e) {
			caught = e;
		}
		caught instanceof RangeError
	`)
	require.NoError(t, err)
	assert.Equal(t, true, v.Export())
	assert.Equal(t, 1, s.Registry().Len())

	// The stored callbacks survived the failed registration and still
	// fire; the rejected one never does.
	wv, err := s.Eval("w.ptr")
	require.NoError(t, err)
	tk.Fire(ObjPtr(wv.Export().(int64)), EventClicked)

	v, err = s.Eval("hits")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Export())
}

func TestRegisterHandler_UserData(t *testing.T) {
	s, tk, _ := newTestSession(t)

	_, err := s.Eval(`
		var seen = null;
		var w = createObject();
		var ctx = createObject();
		registerHandler(w, EVENT_CLICKED, function(ev) { seen = ev; }, ctx);
	`)
	require.NoError(t, err)

	wv, err := s.Eval("w.ptr")
	require.NoError(t, err)
	tk.Fire(ObjPtr(wv.Export().(int64)), EventClicked)

	v, err := s.Eval(`seen.userData.ptr === ctx.ptr`)
	require.NoError(t, err)
	assert.Equal(t, true, v.Export())
}

func TestUnregisterHandler_MissingKeyIsNoOp(t *testing.T) {
	s, _, _ := newTestSession(t)

	_, err := s.Eval(`unregisterHandler(activeScreen(), EVENT_CLICKED)`)
	require.NoError(t, err)
}

func TestBuiltins_ObjectOps(t *testing.T) {
	s, _, _ := newTestSession(t)

	v, err := s.Eval(`
		var screen = activeScreen();
		var w = createObject(screen);
		setText(w, "hello");
		setPos(w, 10, 20);
		setSize(w, 100, 50);
		setValue(w, 7);
		setChecked(w, 1);
		setOpacity(w, 0.5);
		addFlag(w, 0x4);
		clearFlag(w, 0x4);
		w.class
	`)
	require.NoError(t, err)
	assert.Equal(t, "widget", v.Export())

	// The fake toolkit holds no text, which reads as "": empty and
	// absent are indistinguishable by contract.
	v, err = s.Eval(`getText(w)`)
	require.NoError(t, err)
	assert.Equal(t, "", v.Export())

	v, err = s.Eval(`getValue(w)`)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v.Export())
}

func TestBuiltins_SetCheckedLaxness(t *testing.T) {
	s, _, _ := newTestSession(t)

	_, err := s.Eval(`
		var w = createObject();
		setChecked(w, true);
		setChecked(w, 0);
		setChecked(w, 2.5);
	`)
	require.NoError(t, err)

	v, err := s.Eval(`
		var caught = null;
		try { setChecked(w, "yes"); } catch (e) { caught = e; }
		caught instanceof TypeError
	`)
	require.NoError(t, err)
	assert.Equal(t, true, v.Export())
}

func TestBuiltins_UnknownFontIsNull(t *testing.T) {
	s, _, _ := newTestSession(t)

	v, err := s.Eval(`getFont("nope")`)
	require.NoError(t, err)
	assert.True(t, goja.IsNull(v))
}

func TestBuiltins_DeleteObjectReaps(t *testing.T) {
	s, tk, _ := newTestSession(t)

	_, err := s.Eval(`
		var w = createObject();
		registerHandler(w, EVENT_CLICKED, function() {});
		deleteObject(w);
	`)
	require.NoError(t, err)

	// The destroy notice drove the reaper before the call returned.
	assert.Equal(t, 0, s.Registry().Len())
	assert.Equal(t, 1, tk.hookCount(tk.ActiveScreen()))
}

func TestBuiltins_Delay(t *testing.T) {
	s, _, _ := newTestSession(t)

	_, err := s.Eval(`delay(1)`)
	require.NoError(t, err)

	v, err := s.Eval(`
		var caught = null;
		try { delay("soon"); } catch (e) { caught = e; }
		caught instanceof TypeError
	`)
	require.NoError(t, err)
	assert.Equal(t, true, v.Export())
}
