package hashtab

// NoopMetrics is the default Metrics implementation; it does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()                     {}
func (NoopMetrics) Miss()                    {}
func (NoopMetrics) Insert()                  {}
func (NoopMetrics) Delete(DeleteReason, int) {}
func (NoopMetrics) Size(entries int)         {}

// NoopPoolMetrics is the default PoolMetrics implementation.
type NoopPoolMetrics struct{}

func (NoopPoolMetrics) Grow(slots int)        {}
func (NoopPoolMetrics) Slots(inUse, free int) {}

var (
	_ Metrics     = NoopMetrics{}
	_ PoolMetrics = NoopPoolMetrics{}
)
