// Package schedule runs callbacks at scheduled times using a min-heap, with
// O(1) lookup by job ID for reschedule and cancel. It drives the daily
// rollup and the periodic refresh of recently queried cities.
package schedule

import (
	"container/heap"
	"sync"
	"time"
)

// Job is a callback scheduled for future execution.
type Job struct {
	ID    string
	RunAt time.Time
	Fn    func()
	index int // position in the heap
}

// jobHeap is a min-heap of Jobs ordered by RunAt
type jobHeap []*Job

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	return h[i].RunAt.Before(h[j].RunAt)
}

func (h jobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *jobHeap) Push(x interface{}) {
	n := len(*h)
	job := x.(*Job)
	job.index = n
	*h = append(*h, job)
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil // avoid memory leak
	job.index = -1
	*h = old[0 : n-1]
	return job
}

// Scheduler manages scheduled jobs.
type Scheduler struct {
	heap    jobHeap
	jobs    map[string]*Job // O(1) lookup by ID
	mu      sync.Mutex
	wakeup  chan struct{}
	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a stopped scheduler; call Start to run it.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		heap:   make(jobHeap, 0),
		jobs:   make(map[string]*Job),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
	heap.Init(&s.heap)
	return s
}

// Start starts the scheduler loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop stops the scheduler gracefully. Jobs already dispatched keep running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
}

// Schedule adds a job to run at the given time. Scheduling an ID that
// already exists replaces the previous job.
func (s *Scheduler) Schedule(id string, runAt time.Time, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}

	if existing, ok := s.jobs[id]; ok {
		heap.Remove(&s.heap, existing.index)
		delete(s.jobs, id)
	}

	job := &Job{
		ID:    id,
		RunAt: runAt,
		Fn:    fn,
	}

	heap.Push(&s.heap, job)
	s.jobs[id] = job

	// Wake the loop if this became the earliest job.
	if s.heap[0] == job {
		select {
		case s.wakeup <- struct{}{}:
		default:
		}
	}

	return nil
}

// Cancel removes a scheduled job.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return false
	}

	heap.Remove(&s.heap, job.index)
	delete(s.jobs, id)
	return true
}

// Len returns the number of pending jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		s.mu.Lock()

		if s.stopped {
			s.mu.Unlock()
			return
		}

		var waitDuration time.Duration
		if s.heap.Len() == 0 {
			// Nothing pending; sleep until woken.
			waitDuration = 24 * time.Hour
		} else {
			next := s.heap[0]
			waitDuration = time.Until(next.RunAt)

			if waitDuration <= 0 {
				job := heap.Pop(&s.heap).(*Job)
				delete(s.jobs, job.ID)

				go job.Fn()

				s.mu.Unlock()
				continue
			}
		}

		s.mu.Unlock()

		timer := time.NewTimer(waitDuration)
		select {
		case <-timer.C:
		case <-s.wakeup:
			timer.Stop()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

var (
	ErrSchedulerStopped = &SchedulerError{"scheduler is stopped"}
)

// SchedulerError represents a scheduler error
type SchedulerError struct {
	msg string
}

func (e *SchedulerError) Error() string {
	return e.msg
}
