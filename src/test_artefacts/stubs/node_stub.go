package stubs

import (
	"time"

	"gamegraph/src/domain/entities"

	"github.com/brianvoe/gofakeit/v6"
)

type NodeStub struct {
	node entities.Node
}

func NewNodeStub() NodeStub {
	now := time.Now().UTC()

	node := entities.Node{
		ID:         gofakeit.UUID(),
		Type:       entities.NodeTypePerson,
		Context:    "club:demo",
		CreatedBy:  gofakeit.UUID(),
		Visibility: entities.VisibilityPublic,
		Attributes: map[string]any{
			"name":  gofakeit.Name(),
			"email": gofakeit.Email(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return NodeStub{node: node}
}

func (ns NodeStub) WithID(id string) NodeStub {
	ns.node.ID = id
	return ns
}

func (ns NodeStub) WithType(nodeType string) NodeStub {
	ns.node.Type = nodeType
	return ns
}

func (ns NodeStub) WithContext(contextScope string) NodeStub {
	ns.node.Context = contextScope
	return ns
}

func (ns NodeStub) WithVisibility(visibility string) NodeStub {
	ns.node.Visibility = visibility
	return ns
}

func (ns NodeStub) WithAttributes(attributes map[string]any) NodeStub {
	ns.node.Attributes = attributes
	return ns
}

func (ns NodeStub) WithCapabilities(capabilities ...any) NodeStub {
	if ns.node.Attributes == nil {
		ns.node.Attributes = map[string]any{}
	}
	ns.node.Attributes["capabilities"] = capabilities
	return ns
}

func (ns NodeStub) Get() entities.Node {
	return ns.node
}
