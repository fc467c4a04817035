package repositories

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Colunas de ordenação permitidas na superfície pública de consulta.
var allowedOrderColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"type":       true,
}

// queryCursor é o conteúdo do cursor opaco de paginação keyset: o valor
// de ordenação e o id da última linha da página anterior. Evitamos
// semântica de offset de propósito.
type queryCursor struct {
	OrderValue string `json:"v"`
	LastID     string `json:"id"`
}

func encodeCursor(c queryCursor) string {
	raw, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(raw)
}

func decodeCursor(encoded string) (queryCursor, error) {
	var c queryCursor

	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return c, fmt.Errorf("malformed cursor: %w", err)
	}

	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("malformed cursor payload: %w", err)
	}

	return c, nil
}

// normalizeOrder resolve coluna e direção de ordenação com os defaults
// da camada (created_at asc) e valida contra a lista permitida.
func normalizeOrder(orderBy string, direction string) (string, string, error) {
	if orderBy == "" {
		orderBy = "created_at"
	}
	if !allowedOrderColumns[orderBy] {
		return "", "", fmt.Errorf("unsupported order column: %q", orderBy)
	}

	switch direction {
	case "", "asc":
		direction = "ASC"
	case "desc":
		direction = "DESC"
	default:
		return "", "", fmt.Errorf("unsupported order direction: %q", direction)
	}

	return orderBy, direction, nil
}

func normalizePageSize(pageSize int, defaultSize int) int {
	if pageSize <= 0 {
		return defaultSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}
