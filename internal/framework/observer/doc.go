/*
Package observer implements an in-process notification engine.

A Subject holds the latest value and owns a Registry. Every call to Subject.SetValue stores the value and
dispatches it to the subscribers registered at that moment, in registration order, even if the value did not change.

Dispatch works on a snapshot of the membership taken when the dispatch starts:
- subscribers added during a dispatch receive values starting from the next dispatch.
- subscribers removed during a dispatch still receive the value of the current dispatch if they are in the snapshot.

Delivery is best-effort. A subscriber that returns an error or panics does not prevent delivery to the subscribers
after it; all failures are returned in the DispatchResult.
*/
package observer
