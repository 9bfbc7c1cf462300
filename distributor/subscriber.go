package distributor

// Subscriber handles event subscriptions.
type Subscriber struct {
	done                chan struct{}
	runStartedHandler   func(RunStarted)
	carryoverHandler    func(UnfinalizedCarryover)
	reconcileHandler    func(ReconcileCompleted)
	noWorkHandler       func(NoWorkToDo)
	plannedHandler      func(TransactionPlanned)
	submittedHandler    func(TransactionSubmitted)
	sendFailedHandler   func(SendFailed)
	discardedHandler    func(RecordDiscarded)
	finalizedHandler    func(TransactionFinalized)
	pollCycleHandler    func(PollCycleCompleted)
	runCompletedHandler func(RunCompleted)
}

// OnRunStarted sets the handler for RunStarted events
func OnRunStarted(fn func(RunStarted)) func(*Subscriber) {
	return func(s *Subscriber) { s.runStartedHandler = fn }
}

// OnUnfinalizedCarryover sets the handler for UnfinalizedCarryover events
func OnUnfinalizedCarryover(fn func(UnfinalizedCarryover)) func(*Subscriber) {
	return func(s *Subscriber) { s.carryoverHandler = fn }
}

// OnReconcileCompleted sets the handler for ReconcileCompleted events
func OnReconcileCompleted(fn func(ReconcileCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.reconcileHandler = fn }
}

// OnNoWorkToDo sets the handler for NoWorkToDo events
func OnNoWorkToDo(fn func(NoWorkToDo)) func(*Subscriber) {
	return func(s *Subscriber) { s.noWorkHandler = fn }
}

// OnTransactionPlanned sets the handler for TransactionPlanned events
func OnTransactionPlanned(fn func(TransactionPlanned)) func(*Subscriber) {
	return func(s *Subscriber) { s.plannedHandler = fn }
}

// OnTransactionSubmitted sets the handler for TransactionSubmitted events
func OnTransactionSubmitted(fn func(TransactionSubmitted)) func(*Subscriber) {
	return func(s *Subscriber) { s.submittedHandler = fn }
}

// OnSendFailed sets the handler for SendFailed events
func OnSendFailed(fn func(SendFailed)) func(*Subscriber) {
	return func(s *Subscriber) { s.sendFailedHandler = fn }
}

// OnRecordDiscarded sets the handler for RecordDiscarded events
func OnRecordDiscarded(fn func(RecordDiscarded)) func(*Subscriber) {
	return func(s *Subscriber) { s.discardedHandler = fn }
}

// OnTransactionFinalized sets the handler for TransactionFinalized events
func OnTransactionFinalized(fn func(TransactionFinalized)) func(*Subscriber) {
	return func(s *Subscriber) { s.finalizedHandler = fn }
}

// OnPollCycleCompleted sets the handler for PollCycleCompleted events
func OnPollCycleCompleted(fn func(PollCycleCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.pollCycleHandler = fn }
}

// OnRunCompleted sets the handler for RunCompleted events
func OnRunCompleted(fn func(RunCompleted)) func(*Subscriber) {
	return func(s *Subscriber) { s.runCompletedHandler = fn }
}

// NewSubscriber creates a Subscriber with the given options and starts the
// dispatch loop. The returned closer waits until the events channel has
// closed and every event has been handled; use defer closer() right away.
func NewSubscriber(events <-chan Event, opts ...func(*Subscriber)) func() {
	s := &Subscriber{
		done:                make(chan struct{}),
		runStartedHandler:   func(RunStarted) {},           // nop by default
		carryoverHandler:    func(UnfinalizedCarryover) {}, // nop by default
		reconcileHandler:    func(ReconcileCompleted) {},   // nop by default
		noWorkHandler:       func(NoWorkToDo) {},           // nop by default
		plannedHandler:      func(TransactionPlanned) {},   // nop by default
		submittedHandler:    func(TransactionSubmitted) {}, // nop by default
		sendFailedHandler:   func(SendFailed) {},           // nop by default
		discardedHandler:    func(RecordDiscarded) {},      // nop by default
		finalizedHandler:    func(TransactionFinalized) {}, // nop by default
		pollCycleHandler:    func(PollCycleCompleted) {},   // nop by default
		runCompletedHandler: func(RunCompleted) {},         // nop by default
	}

	for _, opt := range opts {
		opt(s)
	}

	go func() {
		defer close(s.done)
		for ev := range events {
			switch e := ev.(type) {
			case RunStarted:
				s.runStartedHandler(e)
			case UnfinalizedCarryover:
				s.carryoverHandler(e)
			case ReconcileCompleted:
				s.reconcileHandler(e)
			case NoWorkToDo:
				s.noWorkHandler(e)
			case TransactionPlanned:
				s.plannedHandler(e)
			case TransactionSubmitted:
				s.submittedHandler(e)
			case SendFailed:
				s.sendFailedHandler(e)
			case RecordDiscarded:
				s.discardedHandler(e)
			case TransactionFinalized:
				s.finalizedHandler(e)
			case PollCycleCompleted:
				s.pollCycleHandler(e)
			case RunCompleted:
				s.runCompletedHandler(e)
			}
		}
	}()

	return func() {
		<-s.done
	}
}
