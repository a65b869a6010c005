package types

// ResourceType identifies a scannable resource category.
type ResourceType string

const (
	ResourceSecurityGroup ResourceType = "security_group"
	ResourceVPC           ResourceType = "vpc"
	ResourceSubnet        ResourceType = "subnet"
	ResourceElasticIP     ResourceType = "elastic_ip"
)

// AllResourceTypes lists every type netprune knows how to scan.
func AllResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceSecurityGroup,
		ResourceVPC,
		ResourceSubnet,
		ResourceElasticIP,
	}
}

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceSecurityGroup, ResourceVPC, ResourceSubnet, ResourceElasticIP:
		return true
	}
	return false
}

// Resource is one discovered cloud resource. Records are built fresh
// from a live inventory call on every scan and never mutated afterwards.
type Resource struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Type             ResourceType      `json:"type"`
	Region           string            `json:"region,omitempty"`
	VpcID            string            `json:"vpc_id,omitempty"`
	CIDRBlock        string            `json:"cidr_block,omitempty"`
	AvailabilityZone string            `json:"availability_zone,omitempty"`
	PublicIP         string            `json:"public_ip,omitempty"`
	AssociationID    string            `json:"association_id,omitempty"`
	Description      string            `json:"description,omitempty"`
	State            string            `json:"state,omitempty"`
	IsDefault        bool              `json:"is_default"`
	Tags             map[string]string `json:"tags,omitempty"`
}

// DisplayName returns the best human-readable label for the resource:
// the Name field when set, otherwise the ID, otherwise "unnamed".
func (r Resource) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID != "" {
		return r.ID
	}
	return "unnamed"
}

// EvidenceSet is a set of resource IDs observed to be in use.
// It only grows; merging collector output never removes evidence,
// and no attribution is kept back to the collector that added an ID.
type EvidenceSet map[string]struct{}

// NewEvidenceSet builds a set from the given IDs, dropping empties.
func NewEvidenceSet(ids ...string) EvidenceSet {
	s := make(EvidenceSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts an ID. Empty IDs are ignored; membership of a resource
// without an identifier cannot be evaluated.
func (s EvidenceSet) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

// Contains reports whether the ID is present.
func (s EvidenceSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Merge unions other into s.
func (s EvidenceSet) Merge(other EvidenceSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// Len returns the number of distinct IDs.
func (s EvidenceSet) Len() int { return len(s) }
