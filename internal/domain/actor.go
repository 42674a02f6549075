package domain

// ActorType differentiates human postings from system-forced actions.
type ActorType string

const (
	ActorTypePosting ActorType = "POSTING"
	ActorTypeSystem  ActorType = "SYSTEM"
)

// ActorRef is the explicit claims object passed into every workflow call.
// Services never reach out to ambient session state.
type ActorRef struct {
	Type      ActorType
	PostingID *string
	Admin     bool
}

// PostingActor builds an actor reference for a human posting.
func PostingActor(postingID string, admin bool) ActorRef {
	return ActorRef{Type: ActorTypePosting, PostingID: &postingID, Admin: admin}
}

// SystemActor is the synthetic actor recorded on system-forced transitions.
func SystemActor() ActorRef {
	return ActorRef{Type: ActorTypeSystem}
}
