package repositories

// Tetos impostos pelo backend. Consultas "valor em conjunto" aceitam no
// máximo 10 valores por predicado; um lote atômico aceita no máximo 500
// mutações.
const (
	batchGetChunkSize   = 10
	batchWriteChunkSize = 500

	defaultNodePageSize         = 25
	defaultRelationshipPageSize = 50
	maxPageSize                 = 500
)

// chunk fatia items em grupos de até size elementos, preservando a ordem.
func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}

	return chunks
}
