package uijs

import "fmt"

// EventKind classifies what happened to a native object. Kinds are small
// integers on the wire; EventAll is the wildcard sentinel a subscription
// may use to receive every kind fired on an object.
type EventKind int32

const (
	EventAll EventKind = iota // wildcard subscription sentinel
	EventPressed
	EventReleased
	EventClicked
	EventLongPressed
	EventValueChanged
	EventFocusGained
	EventFocusLost
	EventReady
	EventDelete // object is being destroyed; drives the lifecycle reaper
)

var kindNames = map[EventKind]string{
	EventAll:          "ALL",
	EventPressed:      "PRESSED",
	EventReleased:     "RELEASED",
	EventClicked:      "CLICKED",
	EventLongPressed:  "LONG_PRESSED",
	EventValueChanged: "VALUE_CHANGED",
	EventFocusGained:  "FOCUS_GAINED",
	EventFocusLost:    "FOCUS_LOST",
	EventReady:        "READY",
	EventDelete:       "DELETE",
}

// String returns the symbolic name of the kind, or its decimal form for
// kinds outside the named set (toolkits may fire private kinds).
func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("%d", int32(k))
}

// KindByName resolves a symbolic kind name to its value.
func KindByName(name string) (EventKind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// EventConstants returns the script-facing constant table for the named
// kinds, keyed "EVENT_<NAME>". Installed into the global namespace at
// session start.
func EventConstants() map[string]int64 {
	consts := make(map[string]int64, len(kindNames))
	for k, n := range kindNames {
		consts["EVENT_"+n] = int64(k)
	}
	return consts
}
