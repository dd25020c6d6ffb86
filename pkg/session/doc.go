/*
Package session runs interviews against stored sessions.

The Manager serializes access to a session (a local mutex per session, plus an
optional distributed lock for multi-replica deployments). The Service builds on it:
each operation loads the session, runs the state machine, dispatches the resulting
side effects to the collaborators, re-arms the inactivity timers and saves the new
session before the lock is released.
*/
package session
