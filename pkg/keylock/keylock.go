package keylock

import "sync"

// shardCount количество шардов реестра; степень двойки для дешёвого взятия остатка
const shardCount = 16

type shard struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// Registry шардированный реестр мьютексов по int64-ключу
// Гарантирует, что для одного ключа все вызовы Get возвращают один и тот же
// объект блокировки (create-if-absent)
type Registry struct {
	shards [shardCount]shard
}

// NewRegistry создает пустой реестр блокировок
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].locks = make(map[int64]*sync.Mutex)
	}
	return r
}

// Get возвращает мьютекс для ключа, создавая его при первом обращении
func (r *Registry) Get(key int64) *sync.Mutex {
	s := &r.shards[uint64(key)%shardCount]

	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.locks[key]; ok {
		return m
	}
	m := &sync.Mutex{}
	s.locks[key] = m
	return m
}

// Lock блокирует мьютекс ключа и возвращает функцию разблокировки
func (r *Registry) Lock(key int64) (unlock func()) {
	m := r.Get(key)
	m.Lock()
	return m.Unlock
}

// LockOrdered блокирует несколько ключей в возрастающем порядке
// Фиксированный глобальный порядок исключает взаимную блокировку
// при операциях над парой слотов (например, перенос брони)
func (r *Registry) LockOrdered(keys ...int64) (unlock func()) {
	sorted := make([]int64, 0, len(keys))
	seen := make(map[int64]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		sorted = append(sorted, k)
	}
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	locked := make([]*sync.Mutex, 0, len(sorted))
	for _, k := range sorted {
		m := r.Get(k)
		m.Lock()
		locked = append(locked, m)
	}
	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}
