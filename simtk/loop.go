package simtk

// Job is one queued toolkit action.
type Job func()

// Loop is the simulated tick pump. Firings queued while script code
// runs are delivered when the driver pumps, the way a real toolkit
// delivers input events from its timer loop.
type Loop struct {
	jobs []Job
}

func NewLoop() *Loop {
	return &Loop{}
}

// Schedule queues j for the next pump.
func (l *Loop) Schedule(j Job) {
	l.jobs = append(l.jobs, j)
}

// Pending reports whether anything is queued.
func (l *Loop) Pending() bool {
	return len(l.jobs) > 0
}

// Run executes queued jobs until the queue is empty, including jobs the
// running jobs queue themselves.
func (l *Loop) Run() {
	for len(l.jobs) > 0 {
		j := l.jobs[0]
		l.jobs = l.jobs[1:]
		j()
	}
}
