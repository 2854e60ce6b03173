// Package internal contains the implementation packages of bleak.
//
// # Package Organization
//
//   - types: questions, element props and the Element interface
//   - registry: question type to element mapping with change events
//   - renderer: type resolution, fallback and default-options policy
//   - observer: render, fallback and registration hooks (logging, metrics)
//   - elements: the built-in HTML elements
//   - config: viper-backed configuration
//   - questions, session: question flows and per-chat answer state
//   - di: wires configuration into the shared services and swaps them on reload
//   - server, middleware: the chat widget over HTTP and WebSocket
//   - watcher: reloads configuration and flows when their files change
//
// A renderer is an immutable snapshot. Reloading builds a new registry and
// renderer and swaps them in; open chat sessions keep the renderer they
// started with.
package internal
