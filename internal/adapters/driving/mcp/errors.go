// Package mcp provides an MCP (Model Context Protocol) server adapter for Contracta.
// It enables AI assistants like Claude to ask questions about, summarise and
// extract fields from locally ingested contracts.
package mcp

import "errors"

// ErrMissingSession is returned when the contract session is not provided.
var ErrMissingSession = errors.New("mcp: contract session is required")
