package entities

import (
	"strings"
	"time"
)

// Tipos de nós conhecidos pelo domínio do clube de jogos.
const (
	NodeTypeActivity = "activity"
	NodeTypeResource = "resource"
	NodeTypePerson   = "person"
	NodeTypeGroup    = "group"
)

// Visibilidade de um nó.
const (
	VisibilityPublic   = "public"
	VisibilityPrivate  = "private"
	VisibilityGroup    = "group"
	VisibilitySelected = "selected"
)

// MetaPrefix marca atributos derivados. Somente o consistency worker
// escreve chaves com esse prefixo; os valores podem estar defasados em
// relação ao conjunto real de relacionamentos (leitores devem tolerar).
const MetaPrefix = "_meta:"

// Agregados derivados mantidos pelo consistency worker.
const (
	MetaOutgoingCount = MetaPrefix + "outgoingCount"
	MetaIncomingCount = MetaPrefix + "incomingCount"
)

// É o "nó" do nosso grafo: uma entidade tipada com um saco de atributos
// aberto, escopada por contexto ("dominio:escopo") e visibilidade.
type Node struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Context   string         `json:"context"`
	CreatedBy string         `json:"created_by"`
	// Usamos um mapa aberto para os atributos, pois cada tipo de nó
	// possui um subconjunto próprio validado pelo schema do tipo.
	Attributes map[string]any `json:"attributes,omitempty"`
	Visibility string         `json:"visibility"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// IsMetaKey informa se a chave de atributo é derivada ("_meta:").
func IsMetaKey(key string) bool {
	return strings.HasPrefix(key, MetaPrefix)
}

// HasOnlyMetaKeys informa se todas as chaves informadas são derivadas.
// Usado pelo consistency worker para não re-disparar a si mesmo.
func HasOnlyMetaKeys(keys []string) bool {
	if len(keys) == 0 {
		return false
	}
	for _, key := range keys {
		if !IsMetaKey(key) {
			return false
		}
	}
	return true
}

// ValidContext verifica o formato "dominio:escopo" (exatamente um ':').
func ValidContext(context string) bool {
	return strings.Count(context, ":") == 1 &&
		!strings.HasPrefix(context, ":") &&
		!strings.HasSuffix(context, ":")
}

// Capabilities lê a lista de capacidades de um nó resource.
// Atributos vindos do JSONB chegam como []any.
func (n Node) Capabilities() []string {
	raw, ok := n.Attributes["capabilities"]
	if !ok {
		return nil
	}

	switch value := raw.(type) {
	case []string:
		return value
	case []any:
		capabilities := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				capabilities = append(capabilities, s)
			}
		}
		return capabilities
	}

	return nil
}

// HasCapability faz a checagem de pertencimento do lado do cliente;
// o backend não consegue consultar contenção em arrays com eficiência.
func (n Node) HasCapability(capability string) bool {
	for _, c := range n.Capabilities() {
		if c == capability {
			return true
		}
	}
	return false
}
