package entity

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// RemoteConfig is a remote configuration repository the identity server
// pulls from.
type RemoteConfig struct {
	ID                        string
	Enabled                   bool
	RepositoryManagerType     string
	ActionListenerType        string
	ConfigurationDeployerType string
	RepositoryURI             string
	SuccessfulDeployments     int
	FailedDeployments         int
	LastDeployed              time.Time
}

type DeployStatus string

const (
	DeployStatusSuccess DeployStatus = "SUCCESS"
	DeployStatusFail    DeployStatus = "FAIL"
)

// Revision is the outcome of deploying one item of a repository.
type Revision struct {
	ItemName    string
	Status      DeployStatus
	DeployedAt  time.Time
	ErrorReport string
}

// Status is the detailed deployment state of one RemoteConfig.
type Status struct {
	RemoteConfig
	LastSynchronized time.Time
	Revisions        []Revision
}

// NewStatus derives the deployment counters from the revisions.
func NewStatus(cfg RemoteConfig, lastSync time.Time, revs []Revision) Status {
	counts := lo.CountValuesBy(revs, func(r Revision) DeployStatus { return r.Status })
	cfg.SuccessfulDeployments = counts[DeployStatusSuccess]
	cfg.FailedDeployments = counts[DeployStatusFail]

	return Status{RemoteConfig: cfg, LastSynchronized: lastSync, Revisions: revs}
}

// Failed returns the revisions whose deployment failed, newest first.
func (s Status) Failed() []Revision {
	failed := lo.Filter(s.Revisions, func(r Revision, _ int) bool { return r.Status == DeployStatusFail })
	slices.SortStableFunc(failed, func(a, b Revision) int {
		return b.DeployedAt.Compare(a.DeployedAt)
	})
	return failed
}
