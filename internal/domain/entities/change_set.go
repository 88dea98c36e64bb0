package entities

// ChangeSet is the output of the change detector and the input of the
// reconciler.
type ChangeSet struct {
	ChangedPackages []string `json:"changed_packages"`
	CommitID        string   `json:"commit_id"`
}

// IsEmpty reports whether there is nothing to reconcile.
func (c ChangeSet) IsEmpty() bool {
	return len(c.ChangedPackages) == 0
}

// ReconcileEvent accepts both a bare ChangeSet and the Lambda destination
// record that wraps it under "responsePayload".
type ReconcileEvent struct {
	ChangeSet

	ResponsePayload *ChangeSet `json:"responsePayload,omitempty"`
}

// Payload returns the wrapped change set when present.
func (e ReconcileEvent) Payload() ChangeSet {
	if e.ResponsePayload != nil {
		return *e.ResponsePayload
	}
	return e.ChangeSet
}

// ReconcileResult summarizes a reconciler run.
type ReconcileResult struct {
	CommitID        string   `json:"commit_id"`
	MissingPackages []string `json:"missing_packages"`
	ObjectKey       string   `json:"object_key,omitempty"`
	Location        string   `json:"location,omitempty"`
	BuildID         string   `json:"build_id,omitempty"`
	DryRun          bool     `json:"dry_run,omitempty"`
}

// Published reports whether a requirements file was handed to the scanner.
func (r ReconcileResult) Published() bool {
	return r.BuildID != ""
}
