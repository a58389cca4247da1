/*
Package session is the caller-facing entry point of the engine.

A Controller starts, resumes and inspects interview sessions. It serializes
calls per session id through a Manager (an in-process, reference-counted lock
map plus an optional distributed locker) and delegates graph traversal and
checkpointing to the runtime Executor.
*/
package session
