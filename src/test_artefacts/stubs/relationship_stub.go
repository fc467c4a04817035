package stubs

import (
	"time"

	"gamegraph/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
)

type RelationshipStub struct {
	relationship entities.Relationship
}

func NewRelationshipStub() RelationshipStub {
	now := time.Now().UTC()

	relationship := entities.Relationship{
		ID:        gofakeit.UUID(),
		SourceID:  gofakeit.UUID(),
		TargetID:  gofakeit.UUID(),
		Type:      entities.RelationshipTypeMemberOf,
		CreatedBy: gofakeit.UUID(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	return RelationshipStub{relationship: relationship}
}

func (rs RelationshipStub) WithID(id string) RelationshipStub {
	rs.relationship.ID = id
	return rs
}

func (rs RelationshipStub) WithSourceID(sourceID string) RelationshipStub {
	rs.relationship.SourceID = sourceID
	return rs
}

func (rs RelationshipStub) WithTargetID(targetID string) RelationshipStub {
	rs.relationship.TargetID = targetID
	return rs
}

func (rs RelationshipStub) WithType(relationshipType string) RelationshipStub {
	rs.relationship.Type = relationshipType
	return rs
}

func (rs RelationshipStub) WithAttributes(attributes map[string]any) RelationshipStub {
	rs.relationship.Attributes = attributes
	return rs
}

func (rs RelationshipStub) WithValidity(from *time.Time, until *time.Time) RelationshipStub {
	rs.relationship.ValidFrom = from
	rs.relationship.ValidUntil = until
	return rs
}

func (rs RelationshipStub) Get() entities.Relationship {
	return rs.relationship
}
