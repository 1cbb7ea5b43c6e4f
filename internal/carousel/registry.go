package carousel

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound карусель с таким идентификатором сообщения неизвестна
var ErrNotFound = errors.New("карусель не найдена")

// Store хранилище состояний каруселей по идентификатору сообщения
type Store interface {
	Save(ctx context.Context, messageID string, state State) error
	Load(ctx context.Context, messageID string) (State, bool, error)
}

// MemoryStore хранит состояния в памяти процесса. После перезапуска состояния теряются.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore создает пустое хранилище в памяти
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

// Save сохраняет состояние
func (m *MemoryStore) Save(_ context.Context, messageID string, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[messageID] = state
	return nil
}

// Load возвращает состояние, если оно есть
func (m *MemoryStore) Load(_ context.Context, messageID string) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[messageID]
	return s, ok, nil
}

// Controller связывает нажатия кнопок с состояниями каруселей.
// Для каждой карусели переходы сериализуются отдельным мьютексом;
// разные карусели друг друга не блокируют.
type Controller struct {
	store Store
	locks sync.Map // messageID -> *sync.Mutex
}

// NewController создает контроллер поверх хранилища
func NewController(store Store) *Controller {
	return &Controller{store: store}
}

func (c *Controller) lock(messageID string) *sync.Mutex {
	l, _ := c.locks.LoadOrStore(messageID, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// Attach привязывает состояние карусели к отправленному сообщению
func (c *Controller) Attach(ctx context.Context, messageID string, state State) error {
	if messageID == "" {
		return fmt.Errorf("пустой идентификатор сообщения")
	}
	l := c.lock(messageID)
	l.Lock()
	defer l.Unlock()

	if err := c.store.Save(ctx, messageID, state); err != nil {
		return fmt.Errorf("ошибка сохранения карусели %s: %w", messageID, err)
	}
	return nil
}

// Navigate выполняет переход и вызывает ack с новым состоянием.
// Мьютекс карусели удерживается на всем пути load → переход → save → ack,
// поэтому второе нажатие на то же сообщение не вклинится между изменением и ответом.
// Если ack вернул ошибку, сохраненное состояние откатывается к показанному в сообщении.
func (c *Controller) Navigate(ctx context.Context, messageID string, d Direction, ack func(State) error) error {
	l, err := c.knownLock(ctx, messageID)
	if err != nil {
		return err
	}
	l.Lock()
	defer l.Unlock()

	state, ok, err := c.store.Load(ctx, messageID)
	if err != nil {
		return fmt.Errorf("ошибка загрузки карусели %s: %w", messageID, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, messageID)
	}

	next := state.Move(d)
	changed := next.Index != state.Index
	if changed {
		if err := c.store.Save(ctx, messageID, next); err != nil {
			return fmt.Errorf("ошибка сохранения карусели %s: %w", messageID, err)
		}
	}

	if ack == nil {
		return nil
	}
	if err := ack(next); err != nil {
		if changed {
			if rbErr := c.store.Save(context.WithoutCancel(ctx), messageID, state); rbErr != nil {
				return errors.Join(err, fmt.Errorf("ошибка отката карусели %s: %w", messageID, rbErr))
			}
		}
		return err
	}
	return nil
}

// knownLock возвращает мьютекс карусели, не заводя записей для неизвестных сообщений.
// Для известных каруселей записи живут до перезапуска процесса, как и MemoryStore.
func (c *Controller) knownLock(ctx context.Context, messageID string) (*sync.Mutex, error) {
	if l, ok := c.locks.Load(messageID); ok {
		return l.(*sync.Mutex), nil
	}
	// Карусель могла быть сохранена до перезапуска (SQLite)
	_, ok, err := c.store.Load(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки карусели %s: %w", messageID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, messageID)
	}
	return c.lock(messageID), nil
}
