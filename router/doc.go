// Package router dispatches validated messages by their id byte and
// correlates outbound commands with their replies.
//
// Listeners registered with Subscribe see every message for an id. A
// correlated request registers a one-shot Waiter instead:
//
//	w, err := r.Expect(sirf.IDSoftwareVersion, 3*time.Second)
//	if err != nil {
//	    return err
//	}
//	// write the command to the transport
//	reply, err := w.Wait(ctx)
//	if errors.Is(err, router.ErrTimeout) {
//	    // give up or re-issue the command
//	}
//
// Each dispatched message resolves at most the oldest pending waiter for its
// id. A waiter that times out or is cancelled is removed before it reports
// failure, so a late message can never resolve it.
package router
