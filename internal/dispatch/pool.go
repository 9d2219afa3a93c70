package dispatch

import "sync"

// Pool runs each task on its own goroutine, with at most limit running at
// once. A limit of zero or less means no limit.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func NewPool(limit int) *Pool {
	p := &Pool{}
	if limit > 0 {
		p.sem = make(chan struct{}, limit)
	}
	return p
}

func (p *Pool) Post(task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.sem != nil {
			p.sem <- struct{}{}
			defer func() { <-p.sem }()
		}
		task()
	}()
}

// Wait blocks until every posted task has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
