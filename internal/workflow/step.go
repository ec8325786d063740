package workflow

// Step enumerates the states of the commit pipeline. Every non-idle state
// can fall into a failed terminal state; which earlier effects survive that
// failure depends on the step (see Orchestrator.Commit).
type Step int

const (
	StepIdle Step = iota
	StepValidating
	StepUploadingAsset
	StepResolvingCategory
	StepWritingProduct
	StepWritingVariants
	StepWritingLedger
	StepInvalidating
	StepDone
)

var stepNames = map[Step]string{
	StepIdle:              "idle",
	StepValidating:        "validating",
	StepUploadingAsset:    "uploading_asset",
	StepResolvingCategory: "resolving_category",
	StepWritingProduct:    "writing_product",
	StepWritingVariants:   "writing_variants",
	StepWritingLedger:     "writing_ledger",
	StepInvalidating:      "invalidating",
	StepDone:              "done",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Notifier is the toast surface. It is an external collaborator; the
// orchestrator only guarantees one error toast per fatal step and at most
// one warning toast per commit.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Warning(msg string)
	Info(msg string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}
func (NopNotifier) Warning(string) {}
func (NopNotifier) Info(string)    {}
