// Package event provides a pub-sub event bus for decoupled inter-component
// communication in stagehand.
//
// The lock manager and session store publish events as coordination state
// changes on disk; observers such as the watch dashboard subscribe without
// either side knowing about the other. Handlers are called synchronously on
// the publishing goroutine.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Lock lifecycle:
//   - [LockAcquiredEvent]: Emitted when a spec lock is claimed
//   - [LockReleasedEvent]: Emitted when a spec lock is released (Forced marks overrides)
//   - [LockCleanedEvent]: Emitted for each stale lock removed by a cleanup sweep
//
// Session lifecycle:
//   - [SessionStartedEvent]: Emitted when a session record is created
//   - [SessionResumedEvent]: Emitted when a session is resumed
//   - [SnapshotRecordedEvent]: Emitted when a snapshot is appended
//
// Scene lifecycle:
//   - [SceneBegunEvent]: Emitted when a scene cycle's primary session is resolved
//   - [SceneCompletedEvent]: Emitted when a cycle completes and the next one opens
//   - [ChildBoundEvent]: Emitted when a spec session is bound under a primary
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Multiple goroutines can publish
// and subscribe concurrently. Handlers are called synchronously and protected
// against panics - a panicking handler will not prevent other handlers from
// being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	// Subscribe to specific event types
//	bus.Subscribe("lock.acquired", func(e event.Event) {
//	    acquired := e.(event.LockAcquiredEvent)
//	    log.Printf("Lock on %s taken by %s", acquired.SpecID, acquired.Owner)
//	})
//
//	// Subscribe to all events (useful for logging)
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("Event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
//	// Publish events
//	bus.Publish(event.NewLockAcquiredEvent("auth-api", "m-1", "alice"))
//
//	// Unsubscribe when done
//	id := bus.Subscribe("lock.released", handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - lock.acquired, lock.released, lock.cleaned
//   - session.started, session.resumed, session.snapshot
//   - scene.begun, scene.completed
//   - child.bound
package event
