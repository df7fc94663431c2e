package uijs

// Reaper purges registry state when native objects die. Native
// allocators reuse freed addresses: without the purge, a later object
// created at a recycled address would phantom-receive callbacks meant
// for the dead one, or dispatch would invoke dropped function
// references inside the engine. This is the most safety-critical hook
// in the bridge.
type Reaper struct {
	reg *Registry
}

func NewReaper(reg *Registry) *Reaper {
	return &Reaper{reg: reg}
}

// Install subscribes the reaper once, on root, to destroy notices. The
// toolkit contract extends screen-level delivery to every descendant,
// so one subscription on the active screen covers the whole object
// tree. The caller keeps root so it can remove the subscription from
// the same object later, even if the active screen changes.
func (rp *Reaper) Install(tk Toolkit, root ObjPtr) (HookID, error) {
	return tk.AddHook(root, EventDelete, rp.Hook, 0)
}

// Hook is the destroy-notice hook body. Cost is one scan of the live
// entries per destruction, fine at UI object-graph scale.
func (rp *Reaper) Hook(ev Event) {
	if ev.Kind() != EventDelete {
		return
	}
	rp.reg.PurgeObject(ev.Target())
}
