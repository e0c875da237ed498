// Package workqueue runs a fixed-size worker pool over a bounded queue,
// generalizing the teacher's Initialize function (graph/construct.go):
// the same fileChan/resultChan/statusChan/wg shape, but parameterized
// over job and result types instead of hardcoded to *CodeGraph, and with
// cancellation wired through a shared interrupt flag and a
// context.Context instead of only a WaitGroup.
package workqueue

import (
	"context"
	"sync"
	"sync/atomic"
)

// InterruptedError is returned by Run when the pool was cancelled before
// every submitted job ran to completion.
type InterruptedError struct{}

func (InterruptedError) Error() string { return "workqueue: interrupted" }

// Interrupt is a shared, poll-at-loop-head cancellation flag per §5's
// cancellation model: any worker can set it (e.g. after hitting a fatal
// invariant violation) and every other worker observes it at its next
// loop head within one round.
type Interrupt struct {
	flag atomic.Bool
}

// Set requests cancellation. Idempotent.
func (i *Interrupt) Set() { i.flag.Store(true) }

// Requested reports whether cancellation has been requested.
func (i *Interrupt) Requested() bool { return i.flag.Load() }

// Pool runs a fixed number of workers pulling Job values from a bounded
// queue and pushing Result values to a bounded output channel. Workers
// are started by Run and exit once the input is closed and drained, or
// cancellation is observed.
type Pool[Job, Result any] struct {
	Workers   int
	Interrupt *Interrupt

	// Process runs in each worker goroutine. It must be safe to call
	// concurrently from multiple workers; any shared state it touches
	// (the FQN->ClassInfo map, archive-handle pools, the temp-file
	// registry) is the caller's responsibility to guard, per §5.
	Process func(ctx context.Context, job Job) (Result, error)

	// OnError receives a per-job error. It runs on the worker goroutine
	// that produced it; the default (nil) drops the error, matching the
	// "per-file errors are contained within the worker" propagation
	// policy in §7 — callers that need fatal-error escalation should
	// call Interrupt.Set() from inside OnError.
	OnError func(job Job, err error)
}

// Run submits jobs, processes them with Workers goroutines, and returns
// their results once every job has been processed or cancellation is
// observed. Result order is not guaranteed to match job order — per §5
// point (b), no cross-job ordering is promised beyond first-wins
// masking, which callers implement above this layer.
func (p *Pool[Job, Result]) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	if p.Workers < 1 {
		p.Workers = 1
	}
	if p.Interrupt == nil {
		p.Interrupt = &Interrupt{}
	}

	jobChan := make(chan Job, len(jobs))
	resultChan := make(chan Result, len(jobs))
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for job := range jobChan {
			if p.Interrupt.Requested() || ctx.Err() != nil {
				continue
			}
			result, err := p.Process(ctx, job)
			if err != nil {
				if p.OnError != nil {
					p.OnError(job, err)
				}
				continue
			}
			resultChan <- result
		}
	}

	wg.Add(p.Workers)
	for i := 0; i < p.Workers; i++ {
		go worker()
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, 0, len(jobs))
	for r := range resultChan {
		results = append(results, r)
	}

	if p.Interrupt.Requested() || ctx.Err() != nil {
		return results, InterruptedError{}
	}
	return results, nil
}
