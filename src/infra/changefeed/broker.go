package changefeed

import (
	"log"
	"sync"

	"gamegraph/src/domain"
)

// Broker é o fan-out in-process de eventos de mudança do store. Os
// repositories publicam aqui depois de cada escrita commitada;
// subscriptions e o consistency worker consomem do mesmo stream, fora do
// caminho de request do caller.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(domain.ChangeEvent)

	events chan domain.ChangeEvent
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewBroker(bufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = 1024
	}

	broker := &Broker{
		subs:   make(map[int]func(domain.ChangeEvent)),
		events: make(chan domain.ChangeEvent, bufferSize),
		done:   make(chan struct{}),
	}

	broker.wg.Add(1)
	go broker.dispatchLoop()

	return broker
}

// Subscribe registra um callback para todos os eventos. A de-duplicação
// por chave é responsabilidade do caller (camada de client cache).
func (b *Broker) Subscribe(cb func(domain.ChangeEvent)) domain.UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = cb

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish enfileira o evento para entrega assíncrona. Nunca executa
// callbacks no goroutine do caller.
func (b *Broker) Publish(event domain.ChangeEvent) {
	select {
	case <-b.done:
	case b.events <- event:
	}
}

func (b *Broker) Close() {
	close(b.done)
	b.wg.Wait()
}

// dispatchLoop entrega eventos em ordem de publicação, um subscriber por
// vez. Um callback que entre em pânico não derruba o broker.
func (b *Broker) dispatchLoop() {
	defer b.wg.Done()

	for {
		select {
		case <-b.done:
			return
		case event := <-b.events:
			b.mu.RLock()
			callbacks := make([]func(domain.ChangeEvent), 0, len(b.subs))
			for _, cb := range b.subs {
				callbacks = append(callbacks, cb)
			}
			b.mu.RUnlock()

			for _, cb := range callbacks {
				b.deliver(cb, event)
			}
		}
	}
}

func (b *Broker) deliver(cb func(domain.ChangeEvent), event domain.ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("changefeed subscriber panicked on %s/%s %s: %v", event.Kind, event.Op, event.EntityID, r)
		}
	}()

	cb(event)
}
