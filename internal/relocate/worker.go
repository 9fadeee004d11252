package relocate

import (
	"context"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
)

// Purpose says what a worker is for.
type Purpose int

const (
	JobFind Purpose = iota + 1
	JobScan
)

func (p Purpose) String() string {
	switch p {
	case JobFind:
		return "find"
	case JobScan:
		return "scan"
	}
	return "unknown"
}

const (
	defaultStreamBuffer = 256
	maxLinesPerPoll     = 512
)

// Stream is the write end a worker reports through. Each Emit is one line.
type Stream struct {
	lines chan string
}

// Emit blocks until the line is buffered or ctx is done.
func (s *Stream) Emit(ctx context.Context, line string) error {
	select {
	case s.lines <- line:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WorkFunc is the body of a worker. It must only touch its own arguments and
// the Stream.
type WorkFunc func(ctx context.Context, out *Stream) error

// Job is one supervised worker.
type Job struct {
	ID      ulid.ULID
	Purpose Purpose
	Owner   string
	Started time.Time

	lines  chan string
	cancel context.CancelFunc
	exited chan struct{}
	err    error
	onLine func(string)
	onExit func(error)
}

// Done is closed once the worker goroutine has returned.
func (j *Job) Done() <-chan struct{} { return j.exited }

// JobInfo is a read-only view of a job for status output.
type JobInfo struct {
	ID      string
	Purpose Purpose
	Owner   string
	Started time.Time
}

// Supervisor tracks running workers. It is not safe for concurrent use; the
// game loop owns it.
type Supervisor struct {
	jobs   map[ulid.ULID]*Job
	buffer int
	now    func() time.Time
}

func NewSupervisor(buffer int) *Supervisor {
	if buffer <= 0 {
		buffer = defaultStreamBuffer
	}
	return &Supervisor{jobs: make(map[ulid.ULID]*Job), buffer: buffer, now: time.Now}
}

// Spawn starts fn on its own goroutine. onLine receives each streamed line
// during Poll; onExit runs once after the last line has been delivered.
// Killed jobs get neither callback again.
func (s *Supervisor) Spawn(purpose Purpose, owner string, fn WorkFunc, onLine func(string), onExit func(error)) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:      ulid.Make(),
		Purpose: purpose,
		Owner:   owner,
		Started: s.now(),
		lines:   make(chan string, s.buffer),
		cancel:  cancel,
		exited:  make(chan struct{}),
		onLine:  onLine,
		onExit:  onExit,
	}
	s.jobs[job.ID] = job
	go func() {
		defer close(job.exited)
		job.err = fn(ctx, &Stream{lines: job.lines})
		close(job.lines)
	}()
	return job
}

// Poll drains whatever the workers have produced without blocking. A
// finished worker's remaining lines are all delivered before its onExit.
func (s *Supervisor) Poll() {
	for _, job := range s.ordered() {
		if _, live := s.jobs[job.ID]; !live {
			continue
		}
		s.drain(job)
	}
}

func (s *Supervisor) drain(job *Job) {
	for i := 0; i < maxLinesPerPoll; i++ {
		select {
		case line, ok := <-job.lines:
			if !ok {
				delete(s.jobs, job.ID)
				job.cancel()
				if job.onExit != nil {
					job.onExit(job.err)
				}
				return
			}
			if job.onLine != nil {
				job.onLine(line)
			}
			if _, live := s.jobs[job.ID]; !live {
				return
			}
		default:
			return
		}
	}
}

// Kill cancels a job and forgets it immediately.
func (s *Supervisor) Kill(id ulid.ULID) bool {
	job, ok := s.jobs[id]
	if !ok {
		return false
	}
	delete(s.jobs, id)
	job.cancel()
	return true
}

// KillAll cancels every job and returns how many were running.
func (s *Supervisor) KillAll() int {
	n := len(s.jobs)
	for id := range s.jobs {
		s.Kill(id)
	}
	return n
}

// Active reports whether a job with purpose is running.
func (s *Supervisor) Active(purpose Purpose) bool {
	for _, job := range s.jobs {
		if job.Purpose == purpose {
			return true
		}
	}
	return false
}

func (s *Supervisor) Len() int { return len(s.jobs) }

// Jobs lists running jobs oldest first.
func (s *Supervisor) Jobs() []JobInfo {
	ordered := s.ordered()
	out := make([]JobInfo, 0, len(ordered))
	for _, job := range ordered {
		out = append(out, JobInfo{ID: job.ID.String(), Purpose: job.Purpose, Owner: job.Owner, Started: job.Started})
	}
	return out
}

func (s *Supervisor) ordered() []*Job {
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Compare(out[j].ID) < 0 })
	return out
}
