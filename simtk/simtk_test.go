package simtk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uijs "github.com/appsys/uijs-go"
)

func TestCreateDelete(t *testing.T) {
	tk := New()
	require.Equal(t, 1, tk.ObjectCount())

	w, err := tk.CreateObject(0)
	require.NoError(t, err)
	assert.True(t, tk.Alive(w))
	assert.Equal(t, 2, tk.ObjectCount())

	require.NoError(t, tk.DeleteObject(w))
	assert.False(t, tk.Alive(w))
	assert.Equal(t, 1, tk.ObjectCount())

	err = tk.DeleteObject(w)
	require.Error(t, err)
}

func TestDeleteScreenRefused(t *testing.T) {
	tk := New()
	err := tk.DeleteObject(tk.ActiveScreen())
	require.Error(t, err)
}

func TestCreateUnderUnknownParent(t *testing.T) {
	tk := New()
	_, err := tk.CreateObject(0xdead)
	require.Error(t, err)
}

func TestAddressReuse(t *testing.T) {
	tk := New()

	first, err := tk.CreateObject(0)
	require.NoError(t, err)
	require.NoError(t, tk.DeleteObject(first))

	// The arena hands the freed address straight back, like a native
	// allocator would.
	second, err := tk.CreateObject(0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCascadeDestroy(t *testing.T) {
	tk := New()

	parent, err := tk.CreateObject(0)
	require.NoError(t, err)
	child, err := tk.CreateObject(parent)
	require.NoError(t, err)
	grandchild, err := tk.CreateObject(child)
	require.NoError(t, err)

	// Delete notices arrive child-first, each while its own address is
	// still live, on the object's hooks and on the screen's.
	var order []uijs.ObjPtr
	_, err = tk.AddHook(tk.ActiveScreen(), uijs.EventDelete, func(ev uijs.Event) {
		assert.Equal(t, uijs.EventDelete, ev.Kind())
		assert.True(t, tk.Alive(ev.Target()))
		order = append(order, ev.Target())
	}, 0)
	require.NoError(t, err)

	require.NoError(t, tk.DeleteObject(parent))
	assert.Equal(t, []uijs.ObjPtr{grandchild, child, parent}, order)
	assert.Equal(t, 1, tk.ObjectCount())
}

func TestHooksFilterAndUserData(t *testing.T) {
	tk := New()
	w, err := tk.CreateObject(0)
	require.NoError(t, err)

	var clicked, all int
	var lastUserData uijs.ObjPtr
	_, err = tk.AddHook(w, uijs.EventClicked, func(ev uijs.Event) {
		clicked++
		lastUserData = ev.UserData()
	}, 0x7777)
	require.NoError(t, err)
	wildcardID, err := tk.AddHook(w, uijs.EventAll, func(ev uijs.Event) { all++ }, 0)
	require.NoError(t, err)
	require.Equal(t, 2, tk.HookCount(w))

	require.NoError(t, tk.Fire(w, uijs.EventClicked))
	assert.Equal(t, 1, clicked)
	assert.Equal(t, 1, all)
	assert.Equal(t, uijs.ObjPtr(0x7777), lastUserData)

	require.NoError(t, tk.Fire(w, uijs.EventValueChanged))
	assert.Equal(t, 1, clicked)
	assert.Equal(t, 2, all)

	require.NoError(t, tk.RemoveHook(w, wildcardID))
	require.Equal(t, 1, tk.HookCount(w))
	require.NoError(t, tk.Fire(w, uijs.EventValueChanged))
	assert.Equal(t, 2, all)

	// Unknown ids and dead objects are no-ops.
	require.NoError(t, tk.RemoveHook(w, 999))
	require.NoError(t, tk.RemoveHook(0xdead, wildcardID))
}

func TestFireOnUnknownObject(t *testing.T) {
	tk := New()
	err := tk.Fire(0xdead, uijs.EventClicked)
	require.Error(t, err)
}

func TestFireLaterAndPump(t *testing.T) {
	tk := New()
	w, err := tk.CreateObject(0)
	require.NoError(t, err)

	var hits int
	_, err = tk.AddHook(w, uijs.EventReady, func(uijs.Event) { hits++ }, 0)
	require.NoError(t, err)

	tk.FireLater(w, uijs.EventReady)
	tk.FireLater(w, uijs.EventReady)
	assert.True(t, tk.Pending())
	assert.Equal(t, 0, hits)

	tk.Pump()
	assert.Equal(t, 2, hits)
	assert.False(t, tk.Pending())
}

func TestFireLaterDroppedForDeadObject(t *testing.T) {
	tk := New()
	w, err := tk.CreateObject(0)
	require.NoError(t, err)

	var hits int
	_, err = tk.AddHook(w, uijs.EventReady, func(uijs.Event) { hits++ }, 0)
	require.NoError(t, err)

	tk.FireLater(w, uijs.EventReady)
	require.NoError(t, tk.DeleteObject(w))
	tk.Pump()
	assert.Equal(t, 0, hits)
}

func TestLoopRunsJobsQueuedWhileDraining(t *testing.T) {
	loop := NewLoop()

	var order []int
	loop.Schedule(func() {
		order = append(order, 1)
		loop.Schedule(func() { order = append(order, 3) })
	})
	loop.Schedule(func() { order = append(order, 2) })

	loop.Run()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestProperties(t *testing.T) {
	tk := New()
	w, err := tk.CreateObject(0)
	require.NoError(t, err)

	require.NoError(t, tk.SetText(w, uijs.NewCString("hello")))
	s, ok, err := tk.Text(w)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	require.NoError(t, tk.SetPos(w, 10, 20))
	x, y, err := tk.Pos(w)
	require.NoError(t, err)
	assert.Equal(t, int32(10), x)
	assert.Equal(t, int32(20), y)

	require.NoError(t, tk.SetSize(w, 100, 50))
	wd, h, err := tk.Size(w)
	require.NoError(t, err)
	assert.Equal(t, int32(100), wd)
	assert.Equal(t, int32(50), h)

	require.NoError(t, tk.SetValue(w, 7))
	v, err := tk.Value(w)
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)

	require.NoError(t, tk.SetChecked(w, true))
	checked, err := tk.Checked(w)
	require.NoError(t, err)
	assert.True(t, checked)

	require.NoError(t, tk.SetOpacity(w, 0.5))
	op, err := tk.Opacity(w)
	require.NoError(t, err)
	assert.Equal(t, 0.5, op)

	require.NoError(t, tk.AddFlag(w, 0x6))
	require.NoError(t, tk.ClearFlag(w, 0x2))
	flags, err := tk.Flags(w)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x4), flags)
}

func TestTextAbsentUntilSet(t *testing.T) {
	tk := New()
	w, err := tk.CreateObject(0)
	require.NoError(t, err)

	_, ok, err := tk.Text(w)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFonts(t *testing.T) {
	tk := New()
	w, err := tk.CreateObject(0)
	require.NoError(t, err)

	font, err := tk.FontByName(uijs.NewCString("default"))
	require.NoError(t, err)
	require.NotZero(t, font)

	require.NoError(t, tk.SetFont(w, font))
	got, err := tk.Font(w)
	require.NoError(t, err)
	assert.Equal(t, font, got)

	// Unknown names resolve to the null pointer, not an error.
	missing, err := tk.FontByName(uijs.NewCString("nope"))
	require.NoError(t, err)
	assert.Zero(t, missing)

	// An address outside the font table is rejected.
	require.Error(t, tk.SetFont(w, 0xdead))
}
