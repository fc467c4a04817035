package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gamegraph/src/domain/entities"
)

var (
	ErrNodeNotFound         = errors.New("node not found")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrAlreadyExists        = errors.New("entity already exists")

	ErrUnavailableServer = errors.New("Oops, something unexpected happened. Please try again later.")
)

// Códigos de operação carregados pelo StoreError.
const (
	StoreOpCreate = "create"
	StoreOpGet    = "get"
	StoreOpUpdate = "update"
	StoreOpDelete = "delete"
	StoreOpQuery  = "query"
	StoreOpBatch  = "batch"
)

// StoreError indica que uma operação de backend falhou. Operações de
// entidade única devolvem isso direto ao caller, sem retry automático.
// Operações em lote nunca sobem StoreError: falhas ficam no BatchResult.
type StoreError struct {
	Op       string
	EntityID string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed for %q: %v", e.Op, e.EntityID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(op string, entityID string, err error) *StoreError {
	return &StoreError{Op: op, EntityID: entityID, Err: err}
}

// ValidationError é local/síncrono, nunca chega ao backend e sempre
// carrega a lista completa de violações acumuladas (não só a primeira).
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ############################################################
// ################ MUTAÇÕES EM LOTE ##########################
// ############################################################

// BatchResult agrega o resultado de uma mutação em lote chunkeada.
// Cada chunk commita atomicamente; chunks são independentes entre si,
// então sucesso parcial é um resultado esperado, não excepcional.
type BatchResult struct {
	Success      bool     `json:"success"`
	SuccessCount int      `json:"success_count"`
	FailedIDs    []string `json:"failed_ids,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}

// Merge acumula o resultado de um chunk no agregado.
func (br *BatchResult) Merge(other BatchResult) {
	br.SuccessCount += other.SuccessCount
	br.FailedIDs = append(br.FailedIDs, other.FailedIDs...)
	br.Errors = append(br.Errors, other.Errors...)
	br.Success = len(br.FailedIDs) == 0
}

// ############################################################
// ################ CONSULTAS PAGINADAS #######################
// ############################################################

// Superfície de filtros exposta aos colaboradores externos.
// Eles nunca montam predicados de backend diretamente.
type NodeFilters struct {
	Context    string
	Type       string
	CreatedBy  string
	Visibility string
}

type RelationshipFilters struct {
	SourceID  string
	TargetID  string
	Type      string
	Types     []string
	CreatedBy string
}

type QueryOptions struct {
	PageSize       int
	Cursor         string
	OrderBy        string
	OrderDirection string
}

// Page é o resultado de uma consulta com cursor opaco. Cursor vazio com
// HasMore=false encerra a paginação.
type Page[T any] struct {
	Items   []T    `json:"items"`
	Cursor  string `json:"cursor,omitempty"`
	HasMore bool   `json:"has_more"`
}

// ############################################################
// ################ EVENTOS DE MUDANÇA ########################
// ############################################################

const (
	ChangeKindNode         = "node"
	ChangeKindRelationship = "relationship"

	ChangeOpCreated = "created"
	ChangeOpUpdated = "updated"
	ChangeOpDeleted = "deleted"
)

// ChangeEvent descreve uma mudança já commitada no store. Sempre carrega
// o valor corrente completo (não um diff); em deletes, o último valor
// conhecido. Alimenta subscriptions e o consistency worker.
type ChangeEvent struct {
	Kind         string                 `json:"kind"`
	Op           string                 `json:"op"`
	EntityID     string                 `json:"entity_id"`
	ChangedKeys  []string               `json:"changed_keys,omitempty"`
	Node         *entities.Node         `json:"node,omitempty"`
	Relationship *entities.Relationship `json:"relationship,omitempty"`
	OccurredAt   time.Time              `json:"occurred_at"`
}
