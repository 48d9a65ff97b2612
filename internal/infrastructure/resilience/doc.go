/*
Package resilience provides the circuit breaker guarding remote document
loads.

When the origin site is down, surface loads fail fast instead of queueing
behind slow requests; the pool keeps the failed surface and reports it as a
diagnostic.

Outcomes:
  - an error counts as a failure unless Settings.IsFailure says otherwise
    (context.Canceled is neutral by default, since collected surfaces
    cancel their in-flight loads)
  - a panic counts as a failure and is re-raised
  - a neutral outcome in Half-Open frees its trial slot without moving
    the state

	breaker := resilience.New("document-loader", resilience.Settings{
	    MaxRequests: 2,
	    Timeout:     20 * time.Second,
	    ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 5 },
	})
	resp, err := resilience.Execute(breaker, func() (*resty.Response, error) {
	    return client.R().SetContext(ctx).Get(uri)
	})

State machine:

	Closed --[ReadyToTrip]--> Open --[Timeout]--> Half-Open --[MaxRequests successes]--> Closed
	                                                  |
	                                              [failure]--> Open
*/
package resilience
