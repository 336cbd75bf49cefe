package taskqueue

// Option customises a Run or Iterate invocation.
type Option func(o *options)

type options struct {
	jobs int
	sink map[int]interface{}
}

func newOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithJobs sets the number of worker subgroups. Zero or negative means one
// subgroup per non-coordinator process.
func WithJobs(jobs int) Option {
	return func(o *options) { o.jobs = jobs }
}

// WithSink supplies a result sink for Iterate. Each yielded element then
// carries a write-once Slot whose value is submitted for the caller, and on
// completion the coordinator's result map is merged into the sink on every
// process. Run ignores it.
func WithSink(sink map[int]interface{}) Option {
	return func(o *options) { o.sink = sink }
}
