/*
Package content is the page-side half of the bridge: everything a content
script does inside one rendering surface's document context.

# Lifetime

A Context is constructed when a surface finishes loading and closed when the
surface is collected or reloaded. It owns, as explicit per-lifetime state:

  - Registry: named closures reachable through capability tokens
  - Dispatcher: an isolated goja VM exposing the global __swipe.execute,
    the only entry point for host→page calls
  - Watcher: matcher/callback registrations re-tested on every subtree change
  - Debouncer: one identity per extraction module
  - Emitter: serialization, per-kind content dedup, posting to the host

Nothing here is process-global; two surfaces never share a registry.

# Flow

	document change → Watcher.Notify → module callback → Debouncer.Schedule
	  → (fires) re-match + Module.Extract → Emitter.Emit → Poster (bytes)

All work for one Context runs on a single loop goroutine, so emissions of one
kind leave the context in order.

# Rules

Extraction selectors live in Rules, defaulting to the target site's classic
markup. A YAML or TOML file may override any subset; RuleSet.Watch reloads it
on change and new contexts pick up the latest rules.
*/
package content
