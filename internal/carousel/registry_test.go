package carousel

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// failingStore хранилище, которое всегда возвращает ошибку
type failingStore struct {
	err error
}

func (f *failingStore) Save(context.Context, string, State) error { return f.err }
func (f *failingStore) Load(context.Context, string) (State, bool, error) {
	return State{}, false, f.err
}

func TestControllerNavigate(t *testing.T) {
	ctx := context.Background()
	c := NewController(NewMemoryStore())

	if err := c.Attach(ctx, "msg-1", New(makeItems(3))); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	var acked []int
	ack := func(s State) error {
		acked = append(acked, s.Index)
		return nil
	}

	steps := []Direction{Advance, Advance, Advance, Retreat}
	for _, d := range steps {
		if err := c.Navigate(ctx, "msg-1", d, ack); err != nil {
			t.Fatalf("Navigate(%s): %v", d, err)
		}
	}

	want := []int{1, 2, 2, 1}
	if len(acked) != len(want) {
		t.Fatalf("ожидалось %d подтверждений, получено %d", len(want), len(acked))
	}
	for i := range want {
		if acked[i] != want[i] {
			t.Errorf("шаг %d: индекс %d, ожидался %d", i, acked[i], want[i])
		}
	}
}

func TestControllerUnknownMessage(t *testing.T) {
	c := NewController(NewMemoryStore())
	called := false
	err := c.Navigate(context.Background(), "missing", Advance, func(State) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ErrNotFound, получено %v", err)
	}
	if called {
		t.Error("ack не должен вызываться для неизвестной карусели")
	}
}

func TestControllerAttachEmptyID(t *testing.T) {
	c := NewController(NewMemoryStore())
	if err := c.Attach(context.Background(), "", New(makeItems(1))); err == nil {
		t.Error("ожидалась ошибка для пустого идентификатора")
	}
}

func TestControllerStoreErrors(t *testing.T) {
	storeErr := errors.New("disk full")
	c := NewController(&failingStore{err: storeErr})

	if err := c.Attach(context.Background(), "m", New(makeItems(2))); !errors.Is(err, storeErr) {
		t.Errorf("Attach: ожидалась ошибка хранилища, получено %v", err)
	}
	if err := c.Navigate(context.Background(), "m", Advance, nil); !errors.Is(err, storeErr) {
		t.Errorf("Navigate: ожидалась ошибка хранилища, получено %v", err)
	}
}

func TestControllerAckError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewController(store)
	_ = c.Attach(ctx, "m", New(makeItems(3)))

	ackErr := errors.New("interaction expired")
	if err := c.Navigate(ctx, "m", Advance, func(State) error { return ackErr }); !errors.Is(err, ackErr) {
		t.Errorf("ожидалась ошибка подтверждения, получено %v", err)
	}

	// Сообщение по-прежнему показывает первую позицию
	s, ok, _ := store.Load(ctx, "m")
	if !ok || s.Index != 0 {
		t.Fatalf("после неудачного подтверждения индекс должен остаться 0: ok=%v index=%d", ok, s.Index)
	}

	var acked int
	if err := c.Navigate(ctx, "m", Advance, func(s State) error {
		acked = s.Index
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if acked != 1 {
		t.Errorf("следующее нажатие должно показать вторую позицию, показано %d", acked+1)
	}
}

func TestControllerUnknownMessageKeepsNoLock(t *testing.T) {
	ctx := context.Background()
	c := NewController(NewMemoryStore())
	_ = c.Attach(ctx, "known", New(makeItems(2)))

	for _, id := range []string{"foreign-1", "foreign-2", "foreign-1"} {
		if err := c.Navigate(ctx, id, Advance, nil); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: ожидалась ErrNotFound, получено %v", id, err)
		}
	}

	count := 0
	c.locks.Range(func(any, any) bool {
		count++
		return true
	})
	if count != 1 {
		t.Errorf("ожидался один мьютекс для известной карусели, получено %d", count)
	}
}

func TestControllerNavigatePersistedCarousel(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Save(ctx, "restored", New(makeItems(2)))

	c := NewController(store)
	if err := c.Navigate(ctx, "restored", Advance, nil); err != nil {
		t.Fatalf("карусель из хранилища должна переключаться: %v", err)
	}
	s, _, _ := store.Load(ctx, "restored")
	if s.Index != 1 {
		t.Errorf("индекс %d, ожидался 1", s.Index)
	}
}

func TestControllerConcurrentPressesStayInBounds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewController(store)
	_ = c.Attach(ctx, "shared", New(makeItems(5)))
	_ = c.Attach(ctx, "other", New(makeItems(5)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var outOfBounds []int
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d := Advance
			if i%3 == 0 {
				d = Retreat
			}
			_ = c.Navigate(ctx, "shared", d, func(s State) error {
				if s.Index < 0 || s.Index >= s.Len() {
					mu.Lock()
					outOfBounds = append(outOfBounds, s.Index)
					mu.Unlock()
				}
				return nil
			})
		}(i)
	}
	wg.Wait()

	if len(outOfBounds) > 0 {
		t.Errorf("индекс вышел за границы: %v", outOfBounds)
	}

	other, ok, _ := store.Load(ctx, "other")
	if !ok || other.Index != 0 {
		t.Errorf("соседняя карусель не должна меняться: ok=%v index=%d", ok, other.Index)
	}
}
