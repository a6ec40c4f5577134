package domain

// Recorder collects the events an aggregate raises until they are pulled
// for dispatch. The zero value is ready to use.
type Recorder struct {
	pending []DomainEvent
}

// Record appends an event.
func (r *Recorder) Record(event DomainEvent) {
	r.pending = append(r.pending, event)
}

// Recorded returns a copy of the events not yet pulled.
func (r *Recorder) Recorded() []DomainEvent {
	if len(r.pending) == 0 {
		return nil
	}
	return append([]DomainEvent(nil), r.pending...)
}

// PullEvents returns the recorded events and forgets them.
func (r *Recorder) PullEvents() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
