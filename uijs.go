/*
Package uijs bridges JavaScript application code to a retained-mode native
UI object graph: opaque handles for native objects, argument marshaling for
the installed native function table, and an event-callback registry that
fans a single toolkit hook out to script subscribers.
*/
package uijs

// Version is the bridge release version.
const Version = "0.1.0"
