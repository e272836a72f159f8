// Package cloud defines the provider-facing entity types the accounting
// engine operates on: accounts, instances, machine images, and image tags.
// Provider-specific detail lives behind a small capability interface so the
// engine never depends on a concrete variant.
package cloud

import "time"

// Tag is a semantic label carried by a machine image, used to classify
// running time (e.g. a distribution tag or a platform tag).
type Tag string

// Well-known tags recognized by default.
const (
	TagRHEL      Tag = "rhel"
	TagOpenShift Tag = "openshift"
)

// Provider identifies a cloud provider.
type Provider string

const (
	ProviderAWS Provider = "aws"
)

// Details is the capability interface shared by provider-specific account
// variants.
type Details interface {
	// CloudAccountID returns the external cloud provider's ID for the account.
	CloudAccountID() string
	// CloudType returns the provider the account belongs to.
	CloudType() Provider
}

// Account is a registered customer cloud account. CreatedAt is immutable
// once set; a zero CreatedAt means the account metadata is incomplete.
type Account struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
	Details   Details
}

// CloudAccountID returns the provider-side account ID, or "" when no
// provider details are attached.
func (a Account) CloudAccountID() string {
	if a.Details == nil {
		return ""
	}
	return a.Details.CloudAccountID()
}

// CloudType returns the provider type, or "" when no provider details are
// attached.
func (a Account) CloudType() Provider {
	if a.Details == nil {
		return ""
	}
	return a.Details.CloudType()
}

// AWSDetails is the AWS variant of account details.
type AWSDetails struct {
	AccountID string // 12-digit AWS account ID
	ARN       string
}

// CloudAccountID returns the AWS account ID.
func (d AWSDetails) CloudAccountID() string { return d.AccountID }

// CloudType returns ProviderAWS.
func (d AWSDetails) CloudType() Provider { return ProviderAWS }

// Ensure interface compliance.
var _ Details = AWSDetails{}

// Instance is a compute resource belonging to exactly one account. It has
// no running state of its own; state is derived from its events.
type Instance struct {
	ID              string
	AccountID       string
	CloudInstanceID string // provider-side identifier (e.g. EC2 instance ID)
	Region          string
}

// Image is a machine image. Tag membership is immutable as far as the
// accounting engine is concerned.
type Image struct {
	ID           string
	CloudImageID string // provider-side identifier (e.g. AMI ID)
	Tags         []Tag
}

// HasTag reports whether the image carries the given tag.
func (img Image) HasTag(tag Tag) bool {
	for _, t := range img.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
