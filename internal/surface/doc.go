/*
Package surface implements the rendering surface pool.

Each entry hosts one document through a Driver and runs a content context
over it. Envelopes posted by the content context are queued per entry and
delivered in order by a pump goroutine through the pool's bridge router, so
messages from one surface are FIFO while different surfaces proceed
independently.

Acquire is idempotent and never blocks on the network: the document is
opened in the background and observers see a loading state until the first
extraction arrives. CollectUnreferenced removes entries outside the live key
set and tears them down asynchronously; anything a torn-down surface still
posts is dropped by the router as a pool miss.
*/
package surface
