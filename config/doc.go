// Package config defines the shared configuration document for the
// voiceloop services and a Store that owns runtime mutations to it.
//
// The document is a single YAML file read at process start by the control
// service and re-read per session by the agent worker. The two processes
// coordinate only through this file: a model or voice update made via the
// HTTP API is observed by the next agent session. Writers perform a full
// read-modify-write with no cross-process locking; two concurrent updates
// can race and the loser's earlier read may overwrite the winner's write.
// This is a known, accepted limitation of the single-file design.
package config
