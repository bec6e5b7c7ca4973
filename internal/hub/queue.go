package hub

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrSubscriberClosed 订阅者已关闭
var ErrSubscriberClosed = errors.New("subscriber closed")

// Subscriber 一个实时连接在 hub 中的句柄；出站消息进入有界队列，满时丢弃最旧的一条
type Subscriber struct {
	id      uint64
	msgs    chan []byte
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex // 串行化 push，保证 丢弃最旧+写入 是一个整体
	dropped atomic.Uint64
}

func newSubscriber(id uint64, size int) *Subscriber {
	if size <= 0 {
		size = 1
	}
	return &Subscriber{
		id:   id,
		msgs: make(chan []byte, size),
		done: make(chan struct{}),
	}
}

func (s *Subscriber) ID() uint64 { return s.id }

// Messages 出站消息
func (s *Subscriber) Messages() <-chan []byte { return s.msgs }

// Done 订阅结束时关闭
func (s *Subscriber) Done() <-chan struct{} { return s.done }

// Dropped 因队列满被丢弃的消息数
func (s *Subscriber) Dropped() uint64 { return s.dropped.Load() }

// Push 非阻塞入队
func (s *Subscriber) Push(msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}

	for {
		select {
		case s.msgs <- msg:
			return nil
		default:
		}
		select {
		case <-s.msgs:
			s.dropped.Add(1)
		default:
		}
	}
}

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}
