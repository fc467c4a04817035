package client

import (
	"context"
	"log"
	"sync"

	"gamegraph/src/domain/entities"
)

type replayKind string

const (
	replayCreateNode replayKind = "create_node"
	replayUpdateNode replayKind = "update_node"
	replayDeleteNode replayKind = "delete_node"
)

// replayEntry é uma escrita pendente. Guarda a intenção original, não o
// estado do cache: o replay reaplica a mutação como o backend a veria.
type replayEntry struct {
	Kind       replayKind
	NodeID     string
	Attributes map[string]any
	Node       *entities.Node
}

// replayQueue é a fila FIFO de escritas offline/falhas. Uma entrada que
// falha permanentemente continua na fila em vez de ser descartada.
type replayQueue struct {
	mu      sync.Mutex
	entries []replayEntry
}

func newReplayQueue() *replayQueue {
	return &replayQueue{}
}

func (q *replayQueue) enqueue(entry replayEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entry)
}

func (q *replayQueue) dequeue() (replayEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return replayEntry{}, false
	}

	entry := q.entries[0]
	q.entries = q.entries[1:]
	return entry, true
}

func (q *replayQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Replay drena a fila uma entrada por vez, em ordem. A falha de uma
// entrada re-enfileira apenas aquela entrada e não bloqueia as
// seguintes; não há rollback de fila inteira. Edições concorrentes de
// múltiplos devices não são reconciliadas: o último replay bem-sucedido
// vence.
func (c *GraphClient) Replay(ctx context.Context) (replayed int, failed int) {
	// Uma passada sobre o tamanho atual evita loop infinito com
	// entradas permanentemente falhando.
	pending := c.queue.len()

	for i := 0; i < pending; i++ {
		entry, ok := c.queue.dequeue()
		if !ok {
			break
		}

		if err := c.replayEntry(ctx, entry); err != nil {
			log.Printf("GraphClient.Replay - entry %s/%s failed, requeued: %v", entry.Kind, entry.NodeID, err)
			c.queue.enqueue(entry)
			failed++
			continue
		}
		replayed++
	}

	return replayed, failed
}

func (c *GraphClient) replayEntry(ctx context.Context, entry replayEntry) error {
	switch entry.Kind {
	case replayCreateNode:
		canonical, err := c.nodes.Create(ctx, *entry.Node)
		if err != nil {
			return err
		}
		c.storeNode(*canonical)

	case replayUpdateNode:
		canonical, err := c.nodes.Update(ctx, entry.NodeID, entry.Attributes)
		if err != nil {
			return err
		}
		c.storeNode(*canonical)

	case replayDeleteNode:
		if err := c.nodes.Delete(ctx, entry.NodeID); err != nil {
			return err
		}
		c.dropNode(entry.NodeID)
	}

	return nil
}
