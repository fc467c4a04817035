package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tipos de relacionamentos conhecidos pelo domínio.
const (
	RelationshipTypeNeeds       = "needs"
	RelationshipTypeProvides    = "provides"
	RelationshipTypeCommittedTo = "committed_to"
	RelationshipTypeReserved    = "reserved"
	RelationshipTypeMemberOf    = "member_of"
	RelationshipTypeOwns        = "owns"
	RelationshipTypeOrganizes   = "organizes"

	RelationshipTypeParticipatesIn = "participates_in"
)

// Namespace fixo para ids determinísticos de relacionamento (uuid v5).
var relationshipIDNamespace = uuid.MustParse("8f3cf8c4-9a14-4f6e-b61a-2f1f6d0aa7c1")

// É a "aresta" do grafo: direcionada, tipada e opcionalmente limitada
// no tempo. A existência dos nós apontados não é garantida por esta
// camada (deletes não cascateiam).
type Relationship struct {
	ID        string `json:"id"`
	SourceID  string `json:"source_id"`
	TargetID  string `json:"target_id"`
	Type      string `json:"type"`
	CreatedBy string `json:"created_by"`
	// Metadados sobre o próprio relacionamento (ex: activity_id de um
	// committed_to).
	Attributes map[string]any `json:"attributes,omitempty"`
	ValidFrom  *time.Time     `json:"valid_from,omitempty"`
	ValidUntil *time.Time     `json:"valid_until,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewRelationshipID gera um id opaco. O default aleatório permite que
// vários relacionamentos com o mesmo (source, target, type) coexistam,
// ex: commitments repetidos ao longo do tempo.
func NewRelationshipID() string {
	return uuid.NewString()
}

// DeterministicRelationshipID gera o id estável de um relacionamento a
// partir da sua forma. Call sites que querem no máximo um relacionamento
// de uma dada forma usam este construtor junto com create-if-absent.
func DeterministicRelationshipID(sourceID, targetID, relType string) string {
	name := fmt.Sprintf("%s|%s|%s", sourceID, targetID, relType)
	return uuid.NewSHA1(relationshipIDNamespace, []byte(name)).String()
}

// IsActiveAt informa se o relacionamento está ativo no instante t:
// (ValidFrom ausente ou t >= ValidFrom) e (ValidUntil ausente ou
// t < ValidUntil). O limite superior é exclusivo.
func (r Relationship) IsActiveAt(t time.Time) bool {
	if r.ValidFrom != nil && t.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && !t.Before(*r.ValidUntil) {
		return false
	}
	return true
}
