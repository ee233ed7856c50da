/*
Package ports defines the driven ports (interfaces) of the navigation engine.

These interfaces decouple the engine from storage backends and workflow
sources so that the same core runs in-process, behind MCP or over HTTP.

# Key Interfaces

  - SessionStore: persists the latest snapshot of each conversation.
  - SourceResolver: turns a workflow reference into document text.
  - DistributedLocker: serializes access to a session across replicas.
*/
package ports
