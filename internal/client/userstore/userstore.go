// Package userstore хранит данные текущего пользователя и позволяет
// подписаться на их изменения (смена пользователя, logout).
package userstore

import "sync"

// Identity представляет отображаемые данные текущего пользователя
type Identity struct {
	Username string
	FullName string
	Role     string
}

// IsAnonymous сообщает, выполнен ли вход
func (i Identity) IsAnonymous() bool {
	return i.Username == ""
}

// Store отдает подписчикам текущий снимок сразу при подписке,
// а затем каждый новый снимок после Set/Clear. Каждый подписчик
// получает последнее значение: промежуточные снимки могут
// пропускаться, если подписчик читает медленно.
type Store struct {
	mu      sync.Mutex
	current Identity
	subs    map[int]chan Identity
	nextID  int
}

// New создает пустой Store (анонимный пользователь)
func New() *Store {
	return &Store{
		subs: make(map[int]chan Identity),
	}
}

// Current возвращает текущий снимок
func (s *Store) Current() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set публикует новый снимок всем подписчикам
func (s *Store) Set(id Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = id
	for _, ch := range s.subs {
		send(ch, id)
	}
}

// Clear сбрасывает пользователя (logout) и публикует пустой снимок
func (s *Store) Clear() {
	s.Set(Identity{})
}

// Subscribe возвращает канал, в который сразу попадает текущий
// снимок, а затем все последующие. Вторым значением возвращается
// функция отписки: после её вызова канал закрывается.
func (s *Store) Subscribe() (<-chan Identity, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	ch := make(chan Identity, 1)
	ch <- s.current
	s.subs[id] = ch

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}

	return ch, unsubscribe
}

// send кладет снимок в канал подписчика, вытесняя непрочитанный
// старый снимок
func send(ch chan Identity, id Identity) {
	for {
		select {
		case ch <- id:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
