// Package http exposes a session controller over a small JSON API.
//
// Routes:
//
//	POST   /sessions               start a session, body {"slots": {...}}
//	GET    /sessions               list session ids
//	GET    /sessions/{id}          session status
//	DELETE /sessions/{id}          delete a session
//	POST   /sessions/{id}/resume   feed one reply, body {"input": "..."}
//	GET    /sessions/{id}/events   server-sent events with every new assistant message
//	GET    /graph                  the interview graph as Mermaid
//	GET    /health, /info          liveness and build info
//
// Errors never leak internal details; each is mapped to a neutral message.
package http
