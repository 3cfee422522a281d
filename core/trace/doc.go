// Package trace loads recorded presence traffic and replays it through a reconciler.
//
// A trace is a YAML or JSON document:
//
//	topic: room:lobby
//	steps:
//	  - event: presence_state
//	    payload: {u1: {metas: [{phx_ref: "1"}]}}
//	  - reconnect: true
//	  - event: presence_diff
//	    payload: {joins: {}, leaves: {u1: {metas: [{phx_ref: "1"}]}}}
//
// Payloads are converted to JSON node by node, so mapping order in the file is the key
// order of the decoded roster. Traces are read from disk with Load or from object
// storage with LoadObject, and Replay runs them over a channel.Local.
package trace
