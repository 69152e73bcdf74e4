// ABOUTME: Session entry hook that persists entries to the transcript, the search index, and the export directory.
// ABOUTME: Record only enqueues; one worker goroutine does the IO in arrival order off the session lock.
package main

import (
	"fmt"
	"log"
	"sync"

	"github.com/2389-research/datachat/chart"
	"github.com/2389-research/datachat/render"
	"github.com/2389-research/datachat/session"
	"github.com/2389-research/datachat/store"
)

// entrySink is one destination for persisted entries.
type entrySink struct {
	name string
	put  func(session.Entry) error
}

// persister records appended entries to the transcript log, the search
// index, and the export directory. Each sink is optional.
type persister struct {
	log   *store.TranscriptLog
	index *store.SqliteIndex
	sinks []entrySink

	mu     sync.Mutex
	wake   *sync.Cond
	queue  []session.Entry
	closed bool
	done   chan struct{}
}

// newPersister opens the sinks that are configured and starts the worker.
// It always returns a usable persister; the error reports a sink that
// could not be opened.
func newPersister(fileID, transcript, exportDir string, extract func(chart.Figure) (chart.Descriptor, bool)) (*persister, error) {
	p := &persister{}
	err := p.open(fileID, transcript)
	if exportDir != "" {
		x := render.Exporter{Dir: exportDir, Extract: extract}
		p.sinks = append(p.sinks, entrySink{name: "export", put: func(e session.Entry) error {
			if e.Origin != session.OriginAgent {
				return nil
			}
			_, err := x.Export(e)
			return err
		}})
	}
	p.start()
	return p, err
}

func (p *persister) open(fileID, transcript string) error {
	if transcript == "" {
		return nil
	}

	tl, err := store.OpenTranscript(transcript)
	if err != nil {
		return err
	}
	p.log = tl
	p.sinks = append(p.sinks, entrySink{name: "append_transcript", put: tl.Append})

	idx, err := store.OpenSqlite(indexPath(transcript))
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	p.index = idx
	p.sinks = append(p.sinks, entrySink{name: "index", put: func(e session.Entry) error {
		return idx.Put(fileID, e)
	}})
	return nil
}

// start launches the worker. Sinks must not change afterwards.
func (p *persister) start() {
	p.done = make(chan struct{})
	p.wake = sync.NewCond(&p.mu)
	go p.run()
}

// Record is the session entry hook. It never blocks on IO; entries
// recorded after Close are dropped.
func (p *persister) Record(e session.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		log.Printf("component=cli action=record entry=%s dropped=closed", e.ID)
		return
	}
	p.queue = append(p.queue, e)
	p.wake.Signal()
}

func (p *persister) run() {
	defer close(p.done)
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.wake.Wait()
		}
		batch := p.queue
		p.queue = nil
		closed := p.closed
		p.mu.Unlock()

		for _, e := range batch {
			p.write(e)
		}
		if closed && len(batch) == 0 {
			return
		}
	}
}

// write sends one entry to every sink. Failures are logged, never fatal.
func (p *persister) write(e session.Entry) {
	for _, sink := range p.sinks {
		if err := sink.put(e); err != nil {
			log.Printf("component=cli action=%s entry=%s error=%q", sink.name, e.ID, err)
		}
	}
}

// Path returns the transcript path, or "" when no transcript is kept.
func (p *persister) Path() string {
	if p.log == nil {
		return ""
	}
	return p.log.Path()
}

// Close writes everything already recorded, then closes the sinks. It is
// safe to call more than once.
func (p *persister) Close() {
	p.mu.Lock()
	already := p.closed
	p.closed = true
	p.wake.Broadcast()
	p.mu.Unlock()

	<-p.done
	if already {
		return
	}
	if p.log != nil {
		_ = p.log.Close()
	}
	if p.index != nil {
		_ = p.index.Close()
	}
}
