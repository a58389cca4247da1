// Package mcp exposes interview sessions as Model Context Protocol tools
// (start_interview, resume_interview, get_status) over stdio or SSE.
package mcp
