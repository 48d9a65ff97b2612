/*
Package bridge is the host half of the content bridge.

Envelopes posted by a surface's content context arrive as bytes. Parse turns
them into a closed set of Message types and hydrates every capability token
into a proxy bound to the originating surface. Router delivers messages to
the observers of that surface only; State is the standard observer that
keeps the latest record of each kind.

Failure handling is deliberately quiet: malformed envelopes are logged and
dropped, envelopes for collected surfaces are dropped, and invoking a
capability whose surface is gone does nothing.
*/
package bridge
